package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
)

// WinnerNotifier сообщает победителям о выданных призах
type WinnerNotifier interface {
	NotifyWinner(ctx context.Context, contest *entity.Contest, winner entity.PrizeWinner) error
}

// NoopNotifier используется, когда отправка писем не настроена
type NoopNotifier struct {
	logger *zap.Logger
}

// NewNoopNotifier создает уведомитель, который только пишет в лог
func NewNoopNotifier(logger *zap.Logger) *NoopNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoopNotifier{logger: logger.Named("NoopNotifier")}
}

func (n *NoopNotifier) NotifyWinner(ctx context.Context, contest *entity.Contest, winner entity.PrizeWinner) error {
	n.logger.Debug("noop winner notification",
		zap.Uint("contest_id", contest.ID),
		zap.Uint("user_id", winner.UserID),
		zap.Int("rank", winner.Rank))
	return nil
}

// ResendNotifier отправляет письма победителям через Resend REST API
type ResendNotifier struct {
	from   string
	client *resend.Client
}

// NewResendNotifier создает уведомитель на Resend
func NewResendNotifier(apiKey, from string) (*ResendNotifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendNotifier{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

// WinnerIdempotencyKey одинаков для повторов одного и того же приза
func WinnerIdempotencyKey(contestID uint, rank int) string {
	return fmt.Sprintf("prize-%d-%d", contestID, rank)
}

func (n *ResendNotifier) NotifyWinner(ctx context.Context, contest *entity.Contest, winner entity.PrizeWinner) error {
	if winner.Email == "" {
		return fmt.Errorf("winner #%d has no email", winner.UserID)
	}

	subject := fmt.Sprintf("You placed #%d in %s", winner.Rank, contest.Title)
	text := fmt.Sprintf("Congratulations, %s! You finished #%d in %q with %d points and won %d (%s).",
		winner.Username, winner.Rank, contest.Title, winner.Score, winner.PrizeAmount, winner.PrizeDescription)
	params := &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{winner.Email},
		Subject: subject,
		Text:    text,
		Html:    "<p>" + html.EscapeString(text) + "</p>",
	}
	options := &resend.SendEmailOptions{
		IdempotencyKey: WinnerIdempotencyKey(contest.ID, winner.Rank),
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := n.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}
