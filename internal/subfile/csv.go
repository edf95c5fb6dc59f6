package subfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"tubefeed/internal/store"
)

// The takeout export carries exactly these columns.
var csvHeader = []string{"Channel Id", "Channel Url", "Channel Title"}

func decodeCSV(r io.Reader) ([]store.Subscription, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	idCol, urlCol, titleCol := 0, 1, 2
	if looksLikeHeader(header) {
		for i, name := range header {
			switch strings.TrimSpace(name) {
			case "Channel Id":
				idCol = i
			case "Channel Url":
				urlCol = i
			case "Channel Title":
				titleCol = i
			}
		}
	} else {
		// Headerless file: the first row is data.
		if sub, ok := csvRow(header, idCol, urlCol, titleCol); ok {
			return decodeCSVRows(reader, idCol, urlCol, titleCol, []store.Subscription{sub}, 0)
		}
		return decodeCSVRows(reader, idCol, urlCol, titleCol, nil, 1)
	}
	return decodeCSVRows(reader, idCol, urlCol, titleCol, nil, 0)
}

func decodeCSVRows(reader *csv.Reader, idCol, urlCol, titleCol int, subs []store.Subscription, rejected int) ([]store.Subscription, int, error) {
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rejected++
			continue
		}
		if sub, ok := csvRow(row, idCol, urlCol, titleCol); ok {
			subs = append(subs, sub)
		} else {
			rejected++
		}
	}
	return subs, rejected, nil
}

func csvRow(row []string, idCol, urlCol, titleCol int) (store.Subscription, bool) {
	field := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	id := field(idCol)
	if id == "" {
		id = channelIDFromURL(field(urlCol))
	}
	if id == "" {
		return store.Subscription{}, false
	}
	return store.Subscription{ChannelID: id, ChannelName: field(titleCol)}, true
}

func looksLikeHeader(row []string) bool {
	for _, cell := range row {
		if strings.EqualFold(strings.TrimSpace(cell), "Channel Id") {
			return true
		}
	}
	return false
}

func encodeCSV(w io.Writer, subs []store.Subscription) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, sub := range subs {
		if err := writer.Write([]string{sub.ChannelID, channelURL(sub.ChannelID), sub.ChannelName}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
