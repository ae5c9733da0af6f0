// Copyright 2024-2026 Aiku AI

package botkit

import (
	"strings"
	"testing"

	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

func TestTextMessageUnformatted(t *testing.T) {
	t.Parallel()
	content := TextMessage("hello", "")
	if content.MsgType != event.MsgText {
		t.Errorf("msgtype = %s", content.MsgType)
	}
	if content.Format != "" || content.FormattedBody != "" {
		t.Errorf("unformatted message carries format fields: %+v", content)
	}
}

func TestNoticeMessageFormatted(t *testing.T) {
	t.Parallel()
	content := NoticeMessage("hello", "<b>hello</b>")
	if content.MsgType != event.MsgNotice {
		t.Errorf("msgtype = %s", content.MsgType)
	}
	if content.Format != event.FormatHTML {
		t.Errorf("format = %s, want %s", content.Format, event.FormatHTML)
	}
	if content.FormattedBody != "<b>hello</b>" {
		t.Errorf("formatted body = %q", content.FormattedBody)
	}
}

func TestMarkdownMessage(t *testing.T) {
	t.Parallel()
	content := MarkdownMessage("**bold** move")
	if content.MsgType != event.MsgText {
		t.Errorf("msgtype = %s", content.MsgType)
	}
	if !strings.Contains(content.FormattedBody, "<strong>bold</strong>") {
		t.Errorf("formatted body = %q, want rendered markdown", content.FormattedBody)
	}
}

func TestReplyMessage(t *testing.T) {
	t.Parallel()
	source := &Event{
		Kind:   EventTextMessage,
		ID:     id.EventID("$orig"),
		Sender: id.UserID("@alice:example.org"),
		Body:   "first line\nsecond line",
	}
	content := ReplyMessage("got it", "!room:example.org", source)

	if content.RelatesTo == nil || content.RelatesTo.InReplyTo == nil {
		t.Fatal("reply carries no in-reply-to relation")
	}
	if content.RelatesTo.InReplyTo.EventID != source.ID {
		t.Errorf("in-reply-to = %s, want %s", content.RelatesTo.InReplyTo.EventID, source.ID)
	}
	if !strings.HasPrefix(content.Body, "> <@alice:example.org> first line") {
		t.Errorf("fallback body does not quote the source:\n%s", content.Body)
	}
	if !strings.Contains(content.Body, "> second line") {
		t.Errorf("fallback body drops continuation lines:\n%s", content.Body)
	}
	if !strings.HasSuffix(content.Body, "got it") {
		t.Errorf("fallback body does not end with the reply:\n%s", content.Body)
	}
	if !strings.Contains(content.FormattedBody, "<mx-reply>") {
		t.Errorf("formatted body missing mx-reply block:\n%s", content.FormattedBody)
	}
	if !strings.Contains(content.FormattedBody, "https://matrix.to/#/!room:example.org/$orig") {
		t.Errorf("formatted body missing event pill:\n%s", content.FormattedBody)
	}
}

func TestMediaMessages(t *testing.T) {
	t.Parallel()
	uri := id.ContentURI{Homeserver: "example.org", FileID: "abc123"}
	info := &event.FileInfo{MimeType: "image/png", Size: 1024, Width: 64, Height: 64}

	img := ImageMessage("cat.png", uri, info)
	if img.MsgType != event.MsgImage {
		t.Errorf("image msgtype = %s", img.MsgType)
	}
	if img.URL != uri.CUString() {
		t.Errorf("image url = %s, want %s", img.URL, uri.CUString())
	}
	if img.Info != info {
		t.Error("image info not attached")
	}

	file := FileMessage("report.pdf", uri, &event.FileInfo{MimeType: "application/pdf"})
	if file.MsgType != event.MsgFile {
		t.Errorf("file msgtype = %s", file.MsgType)
	}
	if file.FileName != "report.pdf" {
		t.Errorf("file name = %q", file.FileName)
	}

	audio := AudioMessage("song.ogg", uri, &event.FileInfo{Duration: 12345})
	if audio.MsgType != event.MsgAudio {
		t.Errorf("audio msgtype = %s", audio.MsgType)
	}

	video := VideoMessage("clip.mp4", uri, nil)
	if video.MsgType != event.MsgVideo {
		t.Errorf("video msgtype = %s", video.MsgType)
	}
}

func TestLocationMessage(t *testing.T) {
	t.Parallel()
	content := LocationMessage("Brewery", "geo:48.137,11.575")
	if content.MsgType != event.MsgLocation {
		t.Errorf("msgtype = %s", content.MsgType)
	}
	if content.GeoURI != "geo:48.137,11.575" {
		t.Errorf("geo uri = %q", content.GeoURI)
	}
}

func TestEmoteMessage(t *testing.T) {
	t.Parallel()
	content := EmoteMessage("raises a glass", "")
	if content.MsgType != event.MsgEmote {
		t.Errorf("msgtype = %s", content.MsgType)
	}
}
