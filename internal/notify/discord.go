package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/sapphire-tools/liquidator/internal/logger"
)

const queueCapacity = 64

// DiscordNotifier posts messages to a Discord webhook from a background
// worker, so slow or failing webhook calls never stall a poll cycle. When the
// queue is full new messages are dropped (and logged).
type DiscordNotifier struct {
	webhookURL string
	mentionID  string
	client     *http.Client
	queue      chan string
	done       chan struct{}
	closeOnce  sync.Once
	log        zerolog.Logger
}

// NewDiscordNotifier builds a notifier and starts its delivery worker.
// mentionID, when set, is prepended as a user mention on critical messages.
func NewDiscordNotifier(webhookURL, mentionID string) *DiscordNotifier {
	n := &DiscordNotifier{
		webhookURL: webhookURL,
		mentionID:  mentionID,
		client:     &http.Client{Timeout: 15 * time.Second},
		queue:      make(chan string, queueCapacity),
		done:       make(chan struct{}),
		log:        logger.GetForComponent("notify"),
	}
	go n.run()
	return n
}

// Info enqueues a routine status message.
func (n *DiscordNotifier) Info(msg string) {
	n.enqueue(msg)
}

// Critical enqueues a message with an operator mention attached.
func (n *DiscordNotifier) Critical(msg string) {
	if n.mentionID != "" {
		msg = fmt.Sprintf("<@%s> %s", n.mentionID, msg)
	}
	n.enqueue(msg)
}

// Close stops accepting messages and waits for the worker to drain the queue.
func (n *DiscordNotifier) Close() {
	n.closeOnce.Do(func() {
		close(n.queue)
		<-n.done
	})
}

func (n *DiscordNotifier) enqueue(msg string) {
	n.log.Info().Msg(msg)
	select {
	case n.queue <- msg:
	default:
		n.log.Warn().Msg("Notification queue full, dropping message")
	}
}

func (n *DiscordNotifier) run() {
	defer close(n.done)
	for msg := range n.queue {
		if err := n.deliver(msg); err != nil {
			n.log.Error().Err(err).Msg("Failed to deliver notification")
		}
	}
}

// deliver posts one message, retrying transient failures briefly.
func (n *DiscordNotifier) deliver(msg string) error {
	payload, err := json.Marshal(map[string]string{"content": msg})
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	post := func() error {
		resp, err := n.client.Post(n.webhookURL, "application/json", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			return fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxElapsedTime = 30 * time.Second
	return backoff.Retry(post, policy)
}
