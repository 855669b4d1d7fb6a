package extract

import (
	"regexp"
	"strings"
)

const maxPrintableRuns = 60

var rePrintableRun = regexp.MustCompile(`[A-Za-zА-Яа-яЁё0-9][A-Za-zА-Яа-яЁё0-9\s,.;:!?()"'/%\-]{24,}`)

// printableText joins the first printable ASCII/Cyrillic runs found in data.
func printableText(data []byte) string {
	runs := rePrintableRun.FindAllString(decodeUTF8(data), maxPrintableRuns)
	return strings.Join(runs, " ")
}
