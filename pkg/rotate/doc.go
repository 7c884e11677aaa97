// Package rotate resolves the day file a record belongs to.
//
// Files are named <name><separator><YYYYMMDD><extension>, one per UTC calendar
// day. A [File] carries the inclusive millisecond window [Begin, End] during
// which it stays current, so a writer only has to re-resolve when a timestamp
// falls outside the window of the file it holds open.
//
// # Usage
//
//	r, err := rotate.New(rotate.ParseTemplate("/var/log/sip/clf.log"))
//	if err != nil {
//	    return err
//	}
//	f := r.Rotate(ts) // /var/log/sip/clf-20120209.log
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package rotate
