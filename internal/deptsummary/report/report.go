package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/yungbote/deptsummary/internal/deptsummary/summary"
	"github.com/yungbote/deptsummary/internal/platform/logger"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatText:
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

// Write renders groups to w. Output is built in memory first so a failure
// never leaves a partial report behind.
func Write(w io.Writer, groups *summary.Groups, format Format) error {
	var buf bytes.Buffer
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(groups); err != nil {
			return fmt.Errorf("encode summary: %w", err)
		}
	case FormatText:
		if err := writeText(&buf, groups); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func writeText(w io.Writer, groups *summary.Groups) error {
	if groups.Len() == 0 {
		_, err := fmt.Fprintln(w, "no departments")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	first := true
	groups.Each(func(name string, s *summary.DepartmentSummary) {
		if !first {
			fmt.Fprintln(tw)
		}
		first = false
		fmt.Fprintf(tw, "%s\n", name)
		fmt.Fprintf(tw, "  male\t%d\n", s.Male)
		fmt.Fprintf(tw, "  female\t%d\n", s.Female)
		fmt.Fprintf(tw, "  ageRange\t%s\n", s.AgeRange)
		fmt.Fprintf(tw, "  hair\t\n")
		for _, color := range sortedKeys(s.Hair) {
			fmt.Fprintf(tw, "    %s\t%d\n", color, s.Hair[color])
		}
		fmt.Fprintf(tw, "  addressUser\t\n")
		for _, fullName := range sortedKeys(s.AddressUser) {
			fmt.Fprintf(tw, "    %s\t%s\n", fullName, s.AddressUser[fullName])
		}
	})
	return tw.Flush()
}

// Log emits one structured line per department. Postal codes stay out of logs.
func Log(log *logger.Logger, groups *summary.Groups) {
	if log == nil {
		return
	}
	groups.Each(func(name string, s *summary.DepartmentSummary) {
		log.Info("department summary",
			"department", name,
			"members", s.Members(),
			"male", s.Male,
			"female", s.Female,
			"age_range", s.AgeRange.String(),
			"hair", s.Hair,
		)
	})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
