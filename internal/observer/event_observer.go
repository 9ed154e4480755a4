package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/lesion-inspector-go/pkg/models"
)

// AnalysisEvent represents an analysis event
type AnalysisEvent struct {
	EventType      EventType         `json:"event_type"`
	Timestamp      time.Time         `json:"timestamp"`
	Source         string            `json:"source"` // filename or URL
	ProcessingTime time.Duration     `json:"processing_time"`
	Success        bool              `json:"success"`
	ErrorMessage   string            `json:"error_message,omitempty"`
	RiskLevel      models.RiskLevel  `json:"risk_level,omitempty"`
	Score          int               `json:"score,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// EventType represents the type of analysis event
type EventType string

const (
	// AnalysisStarted when analysis begins
	AnalysisStarted EventType = "analysis_started"
	// AnalysisCompleted when analysis finishes successfully
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when analysis fails
	AnalysisFailed EventType = "analysis_failed"
	// ImageFetched when a remote image is downloaded
	ImageFetched EventType = "image_fetched"
	// ImageFetchFailed when a remote image cannot be downloaded
	ImageFetchFailed EventType = "image_fetch_failed"
	// HistorySaved when a result is stored in the user's history
	HistorySaved EventType = "history_saved"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event AnalysisEvent)
}

// LoggingObserver logs analysis events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles analysis events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"source":          event.Source,
		"processing_time": event.ProcessingTime.String(),
		"success":         event.Success,
	}

	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	if event.RiskLevel != "" {
		fields["risk_level"] = event.RiskLevel
		fields["score"] = event.Score
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case AnalysisStarted:
		entry.Debug("Lesion analysis started")
	case AnalysisCompleted:
		entry.Info("Lesion analysis completed")
	case AnalysisFailed:
		entry.Warn("Lesion analysis failed")
	case ImageFetched:
		entry.Debug("Image fetched successfully")
	case ImageFetchFailed:
		entry.Error("Image fetch failed")
	case HistorySaved:
		entry.Debug("Analysis saved to history")
	default:
		entry.Info("Analysis event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers event to every observer in subscription order.
// A panicking observer is logged and skipped.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event AnalysisEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	for _, observer := range observers {
		notify(ctx, observer, event)
	}
}

func notify(ctx context.Context, obs Observer, event AnalysisEvent) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
