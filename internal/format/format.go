package format

import "time"

const TimestampLayout = "2006-01-02 15:04:05"

// Render produces the message posted to a log channel: a bold label line with
// the capture time, then the body unchanged.
func Render(label, body string, ts time.Time) string {
	return "**" + label + "** | `" + ts.Format(TimestampLayout) + "`\n" + body
}
