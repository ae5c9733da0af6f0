// Copyright 2024-2026 Aiku AI

package botkit

import (
	"fmt"
	"html"
	"strings"

	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/format"
	"maunium.net/go/mautrix/id"
)

// Message content builders for every supported outbound content type.
// Builders only shape the payload; uploading media and probing its
// metadata is the caller's job.

// TextMessage builds an m.text message. formattedBody may be empty, in
// which case the message is sent unformatted.
func TextMessage(body, formattedBody string) *event.MessageEventContent {
	return textLike(event.MsgText, body, formattedBody)
}

// NoticeMessage builds an m.notice message, which clients render without
// pinging room members.
func NoticeMessage(body, formattedBody string) *event.MessageEventContent {
	return textLike(event.MsgNotice, body, formattedBody)
}

// EmoteMessage builds an m.emote message.
func EmoteMessage(body, formattedBody string) *event.MessageEventContent {
	return textLike(event.MsgEmote, body, formattedBody)
}

func textLike(msgType event.MessageType, body, formattedBody string) *event.MessageEventContent {
	content := &event.MessageEventContent{
		MsgType: msgType,
		Body:    body,
	}
	if formattedBody != "" {
		content.Format = event.FormatHTML
		content.FormattedBody = formattedBody
	}
	return content
}

// MarkdownMessage renders the body as markdown into an m.text message
// with an HTML formatted body.
func MarkdownMessage(body string) *event.MessageEventContent {
	content := format.RenderMarkdown(body, true, false)
	return &content
}

// ReplyMessage builds a rich reply to a prior event, with the quoted
// fallback in the plain body and an mx-reply block in the formatted one.
func ReplyMessage(body string, roomID id.RoomID, inReplyTo *Event) *event.MessageEventContent {
	var quoted strings.Builder
	for i, line := range strings.Split(inReplyTo.Body, "\n") {
		if i == 0 {
			fmt.Fprintf(&quoted, "> <%s> %s\n", inReplyTo.Sender, line)
			continue
		}
		quoted.WriteString("> " + line + "\n")
	}

	formatted := fmt.Sprintf(
		`<mx-reply><blockquote><a href="https://matrix.to/#/%s/%s">In reply to</a> <a href="https://matrix.to/#/%s">%s</a><br/>%s</blockquote></mx-reply>%s`,
		roomID, inReplyTo.ID,
		inReplyTo.Sender, inReplyTo.Sender,
		html.EscapeString(inReplyTo.Body),
		html.EscapeString(body),
	)

	return &event.MessageEventContent{
		MsgType:       event.MsgText,
		Body:          quoted.String() + "\n" + body,
		Format:        event.FormatHTML,
		FormattedBody: formatted,
		RelatesTo: &event.RelatesTo{
			InReplyTo: &event.InReplyTo{EventID: inReplyTo.ID},
		},
	}
}

// ImageMessage builds an m.image message for an already uploaded file.
func ImageMessage(body string, uri id.ContentURI, info *event.FileInfo) *event.MessageEventContent {
	return mediaMessage(event.MsgImage, body, uri, info)
}

// AudioMessage builds an m.audio message for an already uploaded file.
func AudioMessage(body string, uri id.ContentURI, info *event.FileInfo) *event.MessageEventContent {
	return mediaMessage(event.MsgAudio, body, uri, info)
}

// VideoMessage builds an m.video message for an already uploaded file.
func VideoMessage(body string, uri id.ContentURI, info *event.FileInfo) *event.MessageEventContent {
	return mediaMessage(event.MsgVideo, body, uri, info)
}

// FileMessage builds an m.file message for an already uploaded file. The
// body doubles as the file name.
func FileMessage(body string, uri id.ContentURI, info *event.FileInfo) *event.MessageEventContent {
	content := mediaMessage(event.MsgFile, body, uri, info)
	content.FileName = body
	return content
}

func mediaMessage(msgType event.MessageType, body string, uri id.ContentURI, info *event.FileInfo) *event.MessageEventContent {
	return &event.MessageEventContent{
		MsgType: msgType,
		Body:    body,
		URL:     uri.CUString(),
		Info:    info,
	}
}

// LocationMessage builds an m.location message from a geo URI.
func LocationMessage(body, geoURI string) *event.MessageEventContent {
	return &event.MessageEventContent{
		MsgType: event.MsgLocation,
		Body:    body,
		GeoURI:  geoURI,
	}
}
