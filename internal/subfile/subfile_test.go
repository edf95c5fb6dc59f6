package subfile

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"tubefeed/internal/store"
)

func sampleSubs() []store.Subscription {
	return []store.Subscription{
		{ChannelID: "UCaaaa0000000000000000aa", ChannelName: "Alpha Channel"},
		{ChannelID: "UCbbbb0000000000000000bb", ChannelName: "Beta, \"Quoted\" Channel"},
		{ChannelID: "UCcccc0000000000000000cc", ChannelName: "Gamma & Friends"},
	}
}

func TestRoundTripAllFormats(t *testing.T) {
	subs := sampleSubs()
	for _, format := range Formats() {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(format, &buf, subs); err != nil {
				t.Fatalf("encode: %v", err)
			}
			decoded, rejected, err := Decode(format, &buf)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if rejected != 0 {
				t.Fatalf("rejected = %d on clean input", rejected)
			}
			if len(decoded) != len(subs) {
				t.Fatalf("decoded %d records, want %d", len(decoded), len(subs))
			}
			for i := range subs {
				if decoded[i].ChannelID != subs[i].ChannelID {
					t.Errorf("id[%d] = %q, want %q", i, decoded[i].ChannelID, subs[i].ChannelID)
				}
				if decoded[i].ChannelName != subs[i].ChannelName {
					t.Errorf("name[%d] = %q, want %q", i, decoded[i].ChannelName, subs[i].ChannelName)
				}
			}
		})
	}
}

func TestDecodeCSVTakeoutShape(t *testing.T) {
	input := "Channel Id,Channel Url,Channel Title\n" +
		"UCdddd0000000000000000dd,http://www.youtube.com/channel/UCdddd0000000000000000dd,Delta\n"
	subs, rejected, err := Decode(FormatCSV, strings.NewReader(input))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rejected != 0 || len(subs) != 1 {
		t.Fatalf("subs=%+v rejected=%d", subs, rejected)
	}
	if subs[0].ChannelID != "UCdddd0000000000000000dd" || subs[0].ChannelName != "Delta" {
		t.Fatalf("sub = %+v", subs[0])
	}
}

func TestDecodeCSVRejectsDamagedRowsOnly(t *testing.T) {
	var input strings.Builder
	input.WriteString("Channel Id,Channel Url,Channel Title\n")
	for i := 0; i < 97; i++ {
		fmt.Fprintf(&input, "UC%022d,https://www.youtube.com/channel/UC%022d,Channel %d\n", i, i, i)
	}
	input.WriteString(",,No Id Here\n")
	input.WriteString(",broken-url,Still No Id\n")
	input.WriteString(",,\n")

	subs, rejected, err := Decode(FormatCSV, strings.NewReader(input.String()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(subs) != 97 {
		t.Fatalf("decoded %d records, want 97", len(subs))
	}
	if rejected != 3 {
		t.Fatalf("rejected = %d, want 3", rejected)
	}
}

func TestDecodeNewPipeSkipsOtherServices(t *testing.T) {
	input := `{
	  "app_version": "0.27.0",
	  "app_version_int": 1000,
	  "subscriptions": [
	    {"service_id": 0, "url": "https://www.youtube.com/channel/UCeeee0000000000000000ee", "name": "Kept"},
	    {"service_id": 1, "url": "https://media.example/c/other", "name": "Other Service"}
	  ]
	}`
	subs, rejected, err := Decode(FormatNewPipe, strings.NewReader(input))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(subs) != 1 || subs[0].ChannelName != "Kept" {
		t.Fatalf("subs = %+v", subs)
	}
	if rejected != 1 {
		t.Fatalf("rejected = %d", rejected)
	}
}

func TestDecodeFreeTubeMergesProfiles(t *testing.T) {
	input := `{"name": "Main", "subscriptions": [{"id": "UCaaaa0000000000000000aa", "name": "Alpha"}]}
{"name": "Second", "subscriptions": [{"id": "UCbbbb0000000000000000bb", "name": "Beta"}, {"id": "", "name": "Broken"}]}
`
	subs, rejected, err := Decode(FormatFreeTube, strings.NewReader(input))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("subs = %+v", subs)
	}
	if rejected != 1 {
		t.Fatalf("rejected = %d", rejected)
	}
}

func TestDecodeOPMLNestedOutlines(t *testing.T) {
	input := `<?xml version="1.0" encoding="UTF-8"?>
<opml version="1.1">
  <body>
    <outline text="Subscriptions">
      <outline type="rss" text="Alpha" xmlUrl="https://www.youtube.com/feeds/videos.xml?channel_id=UCaaaa0000000000000000aa"/>
      <outline text="Nested Group">
        <outline type="rss" text="Beta" xmlUrl="https://www.youtube.com/feeds/videos.xml?channel_id=UCbbbb0000000000000000bb"/>
      </outline>
      <outline type="rss" text="No Channel" xmlUrl="https://example.com/feed.xml"/>
    </outline>
  </body>
</opml>`
	subs, rejected, err := Decode(FormatOPML, strings.NewReader(input))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("subs = %+v", subs)
	}
	if rejected != 1 {
		t.Fatalf("rejected = %d", rejected)
	}
}

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		name string
		data string
		want Format
	}{
		{"subscriptions.csv", "Channel Id,Channel Url,Channel Title\n", FormatCSV},
		{"subscriptions.opml", "<opml/>", FormatOPML},
		{"export.xml", "<opml version=\"1.1\"></opml>", FormatOPML},
		{"newpipe.json", `{"app_version": "0.27.0", "subscriptions": []}`, FormatNewPipe},
		{"freetube-profiles.db", `{"name": "Main", "subscriptions": []}`, FormatFreeTube},
	}
	for _, tc := range cases {
		got, err := DetectFormat(tc.name, []byte(tc.data))
		if err != nil {
			t.Errorf("%s: %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: detected %s, want %s", tc.name, got, tc.want)
		}
	}

	if _, err := DetectFormat("mystery.bin", []byte{0x00, 0x01}); !errors.Is(err, ErrFormat) {
		t.Errorf("binary input detected as %v", err)
	}
}

func TestDecodeUnknownFormatFails(t *testing.T) {
	if _, _, err := Decode(Format("yaml"), strings.NewReader("")); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
}
