package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/m3rciful/vidbot/core/telegram/format"
	"github.com/m3rciful/vidbot/internal/journal"
)

const (
	copyCaptionUnique = "copy_caption"
	copyCaptionLabel  = "📋 Copy Old Caption"
	historyLimit      = 10
	toastCaptionRunes = 50
)

const (
	textDenied = "🚫 <b>Access Denied</b>\n" +
		"This bot is private and only accessible to its owner."
	textDeniedContact = textDenied + "\n\n" +
		"If you think this is an error, please contact the bot owner."
	textDeniedAlert = "Access denied!"

	textWelcome = "🤖 <b>Welcome to Video Processor Bot!</b>\n\n" +
		"🎯 <b>What I can do:</b>\n" +
		"• Process your video files\n" +
		"• Rename them with custom names\n" +
		"• Add watermark caption\n" +
		"• Convert to document format\n\n" +
		"📤 <b>Just send me a video to get started!</b>"

	textCancelled   = "❌ <b>Operation cancelled!</b>"
	textNothingToDo = "ℹ️ <b>No operation to cancel.</b>"

	textInvalidType = "❌ <b>Invalid file type!</b>\n" +
		"Please send a video file."
	textBusy = "⏳ <b>A rename is already in progress.</b>\n" +
		"Send /cancel to drop it first."
	textInvalidName = "❌ <b>Invalid filename!</b>\n" +
		"Please provide a valid name."

	textNoSession  = "No active session found!"
	textNoHistory  = "📭 <b>No activity recorded yet.</b>"
	textHistoryErr = "❌ <b>Could not read the activity log.</b>"

	textDownloading = "📥 <b>Downloading video...</b>"
	textFailed      = "❌ <b>Error processing video!</b>\n" +
		"Please try again later."
	textStopped = "⛔ <b>Processing stopped.</b>"
)

func helpText(caption string) string {
	return "📋 <b>How to use the bot:</b>\n\n" +
		"1️⃣ Send me a video file\n" +
		"2️⃣ I'll ask for a new filename\n" +
		"3️⃣ Reply with the name (without .mp4)\n" +
		"4️⃣ I'll process and send it back as a document\n\n" +
		"✨ <b>Features:</b>\n" +
		"• Removes old captions\n" +
		"• Adds watermark: " + format.Code(caption) + "\n" +
		"• Converts to document format\n" +
		"• Auto cleanup of temporary files\n\n" +
		"📝 <b>Commands:</b>\n" +
		"/start - Welcome message\n" +
		"/help - This help message\n" +
		"/cancel - Cancel current operation\n" +
		"/history - Recent activity"
}

func tooLargeText(limit, size int64) string {
	return "❌ <b>File too large!</b>\n" +
		"Maximum size: " + format.Size(limit) + "\n" +
		"Your file: " + format.Size(size)
}

func promptText(size int64, caption string) string {
	return "📹 <b>Video received!</b> (" + format.Size(size) + ")\n\n" +
		"📝 <b>Please reply with the new name</b> (without <code>.mp4</code>)\n\n" +
		"📋 <b>Previous Caption:</b>\n" +
		format.Pre(caption)
}

func oldCaptionText(caption string) string {
	return "📋 <b>Old Caption:</b>\n" + format.Code(caption)
}

func captionToast(caption string) string {
	r := []rune(caption)
	if len(r) > toastCaptionRunes {
		r = r[:toastCaptionRunes]
	}
	return "Caption copied: " + string(r) + "..."
}

func uploadingText(caption string) string {
	return "📤 <b>Uploading your renamed file...</b>\n" +
		"🔐 <b>Watermark:</b> " + format.Code(caption)
}

func doneText(fileName, caption string) string {
	return "✅ <b>Done!</b>\n" +
		"📁 <b>New filename:</b> " + format.Code(fileName) + "\n" +
		"🔐 <b>Watermark added:</b> " + format.Code(caption)
}

func rateLimitedText(wait time.Duration) string {
	return fmt.Sprintf("⏳ <b>Rate limited. Waiting %d seconds...</b>", int(wait.Round(time.Second)/time.Second))
}

func historyText(entries []journal.Entry) string {
	if len(entries) == 0 {
		return textNoHistory
	}
	var b strings.Builder
	b.WriteString("🗂 <b>Recent activity:</b>\n")
	for _, e := range entries {
		b.WriteString("\n")
		b.WriteString(format.Code(e.CreatedAt.Local().Format("2006-01-02 15:04:05")))
		b.WriteString(" ")
		b.WriteString(format.Bold(string(e.Action)))
		if e.Details != "" {
			b.WriteString(" - ")
			b.WriteString(format.HTML(format.Truncate(e.Details, 80)))
		}
	}
	return b.String()
}
