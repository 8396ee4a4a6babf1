package zip

import (
	"log/slog"
	"time"

	"m7s.live/probe/pkg/config"
)

// Entry is a decoded header with its name and modification time resolved.
type Entry struct {
	*CentralDirectoryHeader
	DecodedName string
	ModTime     time.Time
}

// Trailer is everything decoded from the end of an archive.
type Trailer struct {
	EOCD    *EndOfCentralDirectory
	Entries []Entry
}

type Inspector struct {
	*slog.Logger
	Config config.Zip
}

func NewInspector(conf config.Zip, logger *slog.Logger) *Inspector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inspector{
		Logger: logger.With("parser", "zip"),
		Config: conf,
	}
}

// Inspect locates the EOCD record in buf, then decodes the central
// directory it points to. When the directory is bad the returned trailer
// still holds the EOCD and any entries decoded before the error.
func (i *Inspector) Inspect(buf []byte) (*Trailer, error) {
	logger := i.Logger
	if logger == nil {
		logger = slog.Default()
	}
	eocd, err := locateEOCD(buf, i.Config.MaxComment)
	if err != nil {
		return nil, err
	}
	logger.Debug("eocd located", "offset", eocd.RecordOffset, "entries", eocd.TotalDiskEntries, "cdOffset", eocd.Offset, "cdSize", eocd.Size, "comment", eocd.CommentLength)
	trailer := &Trailer{EOCD: eocd}
	region, err := eocd.CentralDirectory(buf)
	if err != nil {
		logger.Warn("central directory out of range", "error", err)
		return trailer, err
	}
	headers, err := ReadCentralDirectory(region, int(eocd.TotalDiskEntries), i.Config.Strict)
	trailer.Entries = make([]Entry, 0, len(headers))
	for _, h := range headers {
		trailer.Entries = append(trailer.Entries, Entry{
			CentralDirectoryHeader: h,
			DecodedName:            h.DecodeName(i.Config.NameEncoding),
			ModTime:                h.Modified(),
		})
	}
	if err != nil {
		logger.Warn("central directory", "decoded", len(headers), "error", err)
	}
	return trailer, err
}
