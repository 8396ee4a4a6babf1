package config

const (
	ZeroSizeExtend = "extend"
	ZeroSizeReject = "reject"

	NameEncodingCP437 = "cp437"
	NameEncodingUTF8  = "utf8"
)

type MP4 struct {
	ZeroSize string `default:"extend" desc:"size 为 0 的 box 处理方式: extend 延伸到缓冲区末尾, reject 视为格式错误"`
	MaxDepth int    `default:"8" desc:"容器 box 最大嵌套深度"`
}

type Zip struct {
	Strict       bool   `default:"true" desc:"中央目录必须被完整且精确地消费"`
	MaxComment   int    `default:"65535" desc:"定位 EOCD 时向前扫描的最大注释长度"`
	NameEncoding string `default:"cp437" desc:"未设置 UTF-8 标志位的文件名编码: cp437 或 utf8"`
}

type Log struct {
	Level     string `default:"info" desc:"日志级别"`
	NoColor   bool   `desc:"关闭控制台颜色"`
	Path      string `desc:"日志文件存放目录，为空则只输出到控制台"`
	Size      uint64 `default:"1048576" desc:"日志文件大小，单位：字节"`
	Formatter string `default:"2006-01-02T15" desc:"日志文件名格式"`
	MaxFiles  uint64 `default:"7" desc:"最大日志文件数量"`
}

type Probe struct {
	MP4 MP4 `yaml:"mp4"`
	Zip Zip `yaml:"zip"`
	Log Log `yaml:"log"`
}
