package util

import "fmt"

// Range 半开区间 [r[0], r[1])
type Range[T ~int | ~int8 | ~int16 | ~int32 | ~int64 |
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr] [2]T

func (r *Range[T]) Size() T {
	return r[1] - r[0]
}

func (r Range[T]) String() string {
	return fmt.Sprintf("%d-%d", r[0], r[1])
}
