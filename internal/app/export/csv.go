// Package export flattens completed conversations into the downloadable CSV
// the review surface offers.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/interviewlab/interview-api/internal/domain"
)

var header = []string{"Participant", "Sender", "Sent at", "Exchange", "Interaction", "Content"}

const sentAtLayout = "02/01/2006 15:04"

// CSV renders one row per message across the dismissed exchanges of the
// given interactions. Fields are quoted per RFC 4180 by encoding/csv;
// embedded newlines are replaced by spaces so each message stays on one line.
func CSV(interactions []domain.Interaction) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}

	for _, inter := range interactions {
		for _, ex := range inter.Exchanges {
			if !ex.Dismissed {
				continue
			}
			for _, msg := range ex.Messages {
				row := []string{
					inter.Participant.Name,
					msg.Sender.Name,
					formatSentAt(msg.SentAt),
					ex.Name,
					inter.Name,
					flatten(msg.Content),
				}
				if err := w.Write(row); err != nil {
					return "", fmt.Errorf("write csv row: %w", err)
				}
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return buf.String(), nil
}

// Filename builds the download name for an export, e.g.
// "interviews_all_20240131_16.45.csv".
func Filename(scope string, now time.Time) string {
	return fmt.Sprintf("interviews_%s_%s.csv", scope, now.Format("20060102_15.04"))
}

func formatSentAt(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(sentAtLayout)
}

func flatten(content string) string {
	content = strings.ReplaceAll(content, "\r\n", " ")
	content = strings.ReplaceAll(content, "\n", " ")
	return strings.ReplaceAll(content, "\r", " ")
}
