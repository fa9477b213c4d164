package roles

import (
	"fmt"
	"io"
	"sync"
)

// ANSI colours per category.
var categoryColors = map[Category]string{
	CategoryLine:        "\033[96m",
	CategoryMaintenance: "\033[93m",
	CategoryProduction:  "\033[92m",
	CategoryCosts:       "\033[95m",
	CategoryOther:       "\033[37m",
}

const colorReset = "\033[0m"

// NewPrinter returns a Sink writing two lines per message to w:
//
//	[15:04:05.000] line factory/line1/velocity
//	          {"line":1,"timestamp":"...","unit":"rpm","value":1450.2}
func NewPrinter(w io.Writer, color bool) Sink {
	var mu sync.Mutex
	return func(r Received) {
		mu.Lock()
		defer mu.Unlock()

		prefix, suffix := "", ""
		if color {
			prefix, suffix = categoryColors[r.Category], colorReset
		}
		fmt.Fprintf(w, "%s[%s] %s %s%s\n", prefix, r.ReceivedAt.Format("15:04:05.000"), r.Category, r.Topic, suffix)
		fmt.Fprintf(w, "          %s\n", r.Display())
	}
}
