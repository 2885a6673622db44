package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"github.com/m3rciful/superbot/core/logger"
	"github.com/m3rciful/superbot/internal/ledger"
	"github.com/m3rciful/superbot/internal/upstream"
	"github.com/m3rciful/superbot/internal/weather"
)

type runFunc = func(ctx context.Context, c Conversation) error

func handled(next Mode, run runFunc) (Step, Result) {
	return Step{Next: next, Run: run}, Handled
}

func replyNamed(text func(name string) string) runFunc {
	return func(ctx context.Context, c Conversation) error {
		return c.Reply(ctx, text(c.DisplayName()))
	}
}

func (e *Engine) matchExit(in Input, mode Mode) (Step, Result) {
	if in.Keyword != cmdExit {
		return Step{}, NotHandled
	}
	return handled(None, func(ctx context.Context, c Conversation) error {
		return c.Reply(ctx, exitText(c.DisplayName(), mode))
	})
}

func (e *Engine) matchHelp(in Input, _ Mode) (Step, Result) {
	if in.Keyword != cmdHelp {
		return Step{}, NotHandled
	}
	return handled(None, replyNamed(helpText))
}

func (e *Engine) matchDelete(in Input, _ Mode) (Step, Result) {
	if in.Keyword != cmdDelete {
		return Step{}, NotHandled
	}
	args := strings.Fields(in.Args)
	return handled(None, func(ctx context.Context, c Conversation) error {
		if len(args) == 0 {
			return c.Reply(ctx, msgDeleteUsage)
		}
		if e.deps.Ledger == nil {
			return c.Reply(ctx, msgDeleteFailed)
		}

		if strings.EqualFold(args[0], "bulan") {
			month, ok := parseMonth(args[1:])
			if !ok {
				return c.Reply(ctx, monthRangeText(c.DisplayName()))
			}
			period, removed, err := e.deps.Ledger.DeleteMonth(ctx, month)
			if err != nil {
				return c.Reply(ctx, ledgerFailure(err, c.DisplayName(), msgDeleteFailed))
			}
			return c.Reply(ctx, monthDeletedText(period, removed))
		}

		date, err := ledger.ParseDateDefaultYear(strings.Join(args, " "), e.deps.Ledger.CurrentYear())
		if err != nil {
			return c.Reply(ctx, msgDeleteDateFormat)
		}
		res, err := e.deps.Ledger.DeleteDate(ctx, date)
		if err != nil {
			return c.Reply(ctx, msgDeleteFailed)
		}
		return c.Reply(ctx, dateDeletedText(res))
	})
}

func (e *Engine) matchSave(in Input, _ Mode) (Step, Result) {
	if in.Keyword != cmdSave {
		return Step{}, NotHandled
	}
	args := strings.Fields(in.Args)
	return handled(None, func(ctx context.Context, c Conversation) error {
		name := c.DisplayName()
		if len(args) != 2 {
			return c.Reply(ctx, saveUsageText(name))
		}
		amount, err := ledger.ParseAmount(args[1])
		if err != nil {
			return c.Reply(ctx, "Jumlah harus angka positif, "+name+".")
		}
		date, err := ledger.ParseDate(args[0])
		switch {
		case errors.Is(err, ledger.ErrInvalidDate):
			return c.Reply(ctx, "Tanggal tidak valid, "+name+".")
		case err != nil:
			return c.Reply(ctx, msgSaveDateFormat)
		}
		if e.deps.Ledger == nil {
			return c.Reply(ctx, msgSaveFailed)
		}
		entry, err := e.deps.Ledger.Save(ctx, date, amount)
		if err != nil {
			return c.Reply(ctx, msgSaveFailed)
		}
		return c.Reply(ctx, savedText(entry))
	})
}

func (e *Engine) matchReport(in Input, _ Mode) (Step, Result) {
	if in.Keyword != cmdReport {
		return Step{}, NotHandled
	}
	args := strings.Fields(in.Args)
	return handled(None, func(ctx context.Context, c Conversation) error {
		if len(args) < 2 || !strings.EqualFold(args[0], "bulan") {
			return c.Reply(ctx, msgReportUsage)
		}
		month, ok := parseMonth(args[1:])
		if !ok {
			return c.Reply(ctx, monthRangeText(c.DisplayName()))
		}
		if e.deps.Ledger == nil {
			return c.Reply(ctx, msgReportFailed)
		}
		report, err := e.deps.Ledger.Report(ctx, month)
		if err != nil {
			return c.Reply(ctx, ledgerFailure(err, c.DisplayName(), msgReportFailed))
		}
		return c.Reply(ctx, reportText(report))
	})
}

func (e *Engine) matchChat(in Input, mode Mode) (Step, Result) {
	switch {
	case in.Keyword == cmdChat && in.Args == "":
		if mode == AiChat {
			return handled(AiChat, replyNamed(chatReminderText))
		}
		return handled(AiChat, replyNamed(enterChatText))
	case in.Keyword == cmdChat:
		// With an argument the prompt is answered and chat mode is entered
		// or kept, so follow-up text continues the conversation.
		return handled(AiChat, e.runChat(in.Args))
	case mode == AiChat && in.Text != "" && !in.IsTrigger():
		return handled(AiChat, e.runChat(in.Text))
	}
	return Step{}, NotHandled
}

func (e *Engine) runChat(prompt string) runFunc {
	return func(ctx context.Context, c Conversation) error {
		if err := c.Reply(ctx, msgChatProgress); err != nil {
			return err
		}
		if e.deps.Chat == nil {
			return c.ReplyText(ctx, msgChatFailed)
		}
		answer, err := e.deps.Chat.Chat(ctx, prompt)
		if err != nil {
			return c.ReplyText(ctx, upstream.Reply(err, msgChatFailed))
		}
		return c.ReplyText(ctx, answer)
	}
}

func (e *Engine) matchImage(in Input, mode Mode) (Step, Result) {
	switch {
	case in.Keyword == cmdImage && in.Args == "":
		if mode == AiImage {
			return handled(AiImage, replyNamed(imageReminderText))
		}
		return handled(AiImage, replyNamed(enterImageText))
	case in.Keyword == cmdImage:
		return handled(AiImage, e.runImage(in.Args))
	case mode == AiImage && in.Text != "" && !in.IsTrigger():
		return handled(AiImage, e.runImage(in.Text))
	}
	return Step{}, NotHandled
}

func (e *Engine) runImage(prompt string) runFunc {
	return func(ctx context.Context, c Conversation) error {
		if err := c.Reply(ctx, msgImageProgress); err != nil {
			return err
		}
		if e.deps.Image == nil {
			return c.Reply(ctx, msgImageFailed)
		}
		img, err := e.deps.Image.Generate(ctx, prompt)
		if err != nil {
			return c.Reply(ctx, upstream.Reply(err, msgImageFailed))
		}
		return c.ReplyImage(ctx, img.Data, img.ContentType)
	}
}

func (e *Engine) matchWeather(in Input, _ Mode) (Step, Result) {
	if in.Keyword != cmdWeather {
		return Step{}, NotHandled
	}
	city := weather.CleanQuery(in.Args)
	return handled(None, func(ctx context.Context, c Conversation) error {
		if city == "" {
			return c.Reply(ctx, weatherUsageText(c.DisplayName()))
		}
		if err := c.Reply(ctx, weatherProgressText(city)); err != nil {
			return err
		}
		if e.deps.Weather == nil {
			return c.Reply(ctx, msgWeatherFailed)
		}
		summary, err := e.deps.Weather.Lookup(ctx, city)
		if err != nil {
			return c.Reply(ctx, upstream.Reply(err, msgWeatherFailed))
		}
		return c.Reply(ctx, summary)
	})
}

func (e *Engine) matchSticker(in Input, _ Mode) (Step, Result) {
	if !in.HasImage {
		return Step{}, NotHandled
	}
	return handled(None, func(ctx context.Context, c Conversation) error {
		photo, err := c.DownloadImage(ctx)
		if err != nil {
			logger.LogEvent(ctx, logger.Conv, slog.LevelWarn, "conv.download",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
			return c.Reply(ctx, msgStickerFailed)
		}
		if err := c.Reply(ctx, stickerIntroText(c.DisplayName())); err != nil {
			return err
		}
		if e.deps.Sticker == nil {
			return c.Reply(ctx, msgStickerFailed)
		}
		sticker, err := e.deps.Sticker.Make(ctx, photo)
		if err != nil {
			return c.Reply(ctx, upstream.Reply(err, msgStickerFailed))
		}
		return c.ReplySticker(ctx, sticker)
	})
}

func (e *Engine) matchVoice(in Input, _ Mode) (Step, Result) {
	if in.Keyword != cmdVoice {
		return Step{}, NotHandled
	}
	lang, text := splitFirst(in.Args)
	lang = strings.ToLower(lang)
	text = strings.TrimSpace(text)
	hasText := strings.ContainsFunc(in.Args, unicode.IsSpace)
	return handled(None, func(ctx context.Context, c Conversation) error {
		switch {
		case !hasText:
			return c.Reply(ctx, voiceUsageText(c.DisplayName()))
		case text == "":
			return c.Reply(ctx, voiceMissingText(c.DisplayName()))
		}
		if err := c.Reply(ctx, voiceProgressText(lang)); err != nil {
			return err
		}
		if e.deps.Speech == nil {
			return c.Reply(ctx, msgVoiceFailed)
		}
		audio, err := e.deps.Speech.Synthesize(ctx, lang, text)
		if err != nil {
			return c.Reply(ctx, upstream.Reply(err, msgVoiceFailed))
		}
		return c.ReplyVoice(ctx, audio.Data, audio.ContentType)
	})
}

// parseMonth reads a month number 1..12 from the first argument.
func parseMonth(args []string) (int, bool) {
	if len(args) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > 12 {
		return 0, false
	}
	return n, true
}

func ledgerFailure(err error, name, fallback string) string {
	if errors.Is(err, ledger.ErrInvalidMonth) {
		return monthRangeText(name)
	}
	return fallback
}
