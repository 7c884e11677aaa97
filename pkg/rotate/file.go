package rotate

import "time"

// DayMillis is the number of milliseconds in a UTC day.
const DayMillis = int64(24 * time.Hour / time.Millisecond)

// File is a day file together with its inclusive validity window in Unix
// milliseconds. File values are immutable.
type File struct {
	Path  string
	Begin int64
	End   int64
}

// Empty stands for "no file open". It contains no timestamp.
var Empty = File{}

// IsEmpty reports whether f is the Empty sentinel.
func (f File) IsEmpty() bool {
	return f.Path == ""
}

// Contains reports whether ts lies within the window of f.
func (f File) Contains(ts int64) bool {
	return !f.IsEmpty() && f.Begin <= ts && ts <= f.End
}

// Day returns the UTC midnight of the day f represents.
func (f File) Day() time.Time {
	return dayStart(f.Begin)
}

func dayStart(ts int64) time.Time {
	return time.UnixMilli(ts).UTC().Truncate(24 * time.Hour)
}

// dayBounds returns the first and last millisecond of the UTC day holding ts.
func dayBounds(ts int64) (int64, int64) {
	begin := dayStart(ts).UnixMilli()
	return begin, begin + DayMillis - 1
}
