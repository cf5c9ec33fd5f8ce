package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/eventsphere/eventsphere/internal/api/metrics"
	"github.com/eventsphere/eventsphere/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	sendTimeout    = 15 * time.Second
)

// Dispatcher delivers mail on a fixed set of workers. Messages are sharded by
// recipient so one inbox receives its mail in enqueue order.
type Dispatcher struct {
	workers []chan ports.Mail
	mailer  ports.Mailer
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, mailer ports.Mailer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.Mail, numWorkers),
		mailer:  mailer,
		log:     log.With().Str("component", "mail_dispatcher").Logger(),
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.Mail, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. When ctx is cancelled each worker
// delivers what is still buffered and then stops; Wait blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands a mail to the worker owning its recipient. A full worker
// channel drops the mail instead of blocking the request.
func (d *Dispatcher) Enqueue(mail ports.Mail) {
	i := d.shardIndex(mail.To)
	select {
	case d.workers[i] <- mail:
		metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(i)).Set(float64(len(d.workers[i])))
	default:
		metrics.MailsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().Str("to", mail.To).Int("worker_id", i).Msg("mail queue full, dropping message")
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(recipient string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(recipient)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.Mail) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			d.drain(ctx, id, ch)
			return
		case mail := <-ch:
			metrics.MailQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.deliver(ctx, id, mail)
		}
	}
}

// drain delivers whatever is buffered at shutdown without waiting for more.
func (d *Dispatcher) drain(ctx context.Context, id int, ch <-chan ports.Mail) {
	n := 0
	for {
		select {
		case mail := <-ch:
			d.deliver(ctx, id, mail)
			n++
		default:
			metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(0)
			if n > 0 {
				d.log.Info().Int("worker_id", id).Int("drained", n).Msg("mail queue drained")
			}
			return
		}
	}
}

// deliver sends one mail. Each send gets its own deadline that outlives a
// cancelled worker context.
func (d *Dispatcher) deliver(ctx context.Context, id int, mail ports.Mail) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()

	start := time.Now()
	err := d.mailer.Send(sendCtx, mail)
	metrics.MailSendDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.MailsTotal.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).
			Str("to", mail.To).
			Int("worker_id", id).
			Msg("mail delivery failed")
		return
	}
	metrics.MailsTotal.WithLabelValues("sent").Inc()
}
