package board

import (
	"sync"
	"time"
)

// ToastKind distinguishes notification severities.
type ToastKind string

const (
	ToastKindSuccess ToastKind = "success"
	ToastKindError   ToastKind = "error"
	ToastKindInfo    ToastKind = "info"
)

// Toast is one auto-expiring notification.
type Toast struct {
	ID      int64
	Kind    ToastKind
	Message string
}

const toastSubscriberBuffer = 8

// Notifier owns the notification queue. It is constructed explicitly and
// injected into whatever owns the page; its identifier counter is monotonic
// and never repeats within a session.
type Notifier struct {
	mutex              sync.Mutex
	nextToastID        int64
	nextSubscriptionID int64
	timeToLive         time.Duration
	active             []Toast
	subscribers        map[int64]chan Toast
	closed             bool
}

// NewNotifier constructs a notifier whose toasts expire after timeToLive.
func NewNotifier(timeToLive time.Duration) *Notifier {
	if timeToLive <= 0 {
		timeToLive = defaultToastTTL
	}
	return &Notifier{
		timeToLive:  timeToLive,
		subscribers: make(map[int64]chan Toast),
	}
}

// Success publishes a success toast.
func (notifier *Notifier) Success(message string) Toast {
	return notifier.publish(ToastKindSuccess, message)
}

// Error publishes an error toast.
func (notifier *Notifier) Error(message string) Toast {
	return notifier.publish(ToastKindError, message)
}

// Info publishes an informational toast.
func (notifier *Notifier) Info(message string) Toast {
	return notifier.publish(ToastKindInfo, message)
}

func (notifier *Notifier) publish(kind ToastKind, message string) Toast {
	notifier.mutex.Lock()
	notifier.nextToastID++
	toast := Toast{ID: notifier.nextToastID, Kind: kind, Message: message}
	if !notifier.closed {
		notifier.active = append(notifier.active, toast)
		for _, subscriberChannel := range notifier.subscribers {
			select {
			case subscriberChannel <- toast:
			default:
			}
		}
	}
	notifier.mutex.Unlock()

	time.AfterFunc(notifier.timeToLive, func() {
		notifier.Dismiss(toast.ID)
	})
	return toast
}

// Dismiss removes a toast by identifier before its expiry.
func (notifier *Notifier) Dismiss(toastID int64) {
	notifier.mutex.Lock()
	defer notifier.mutex.Unlock()
	for position, toast := range notifier.active {
		if toast.ID == toastID {
			notifier.active = append(notifier.active[:position], notifier.active[position+1:]...)
			return
		}
	}
}

// Active returns a snapshot of the currently visible toasts.
func (notifier *Notifier) Active() []Toast {
	notifier.mutex.Lock()
	defer notifier.mutex.Unlock()
	snapshot := make([]Toast, len(notifier.active))
	copy(snapshot, notifier.active)
	return snapshot
}

// Subscribe returns a subscription that streams published toasts.
func (notifier *Notifier) Subscribe() *ToastSubscription {
	notifier.mutex.Lock()
	defer notifier.mutex.Unlock()
	if notifier.closed {
		return nil
	}
	subscriptionID := notifier.nextSubscriptionID
	notifier.nextSubscriptionID++
	toastChannel := make(chan Toast, toastSubscriberBuffer)
	notifier.subscribers[subscriptionID] = toastChannel
	return &ToastSubscription{
		notifier:   notifier,
		identifier: subscriptionID,
		toasts:     toastChannel,
	}
}

// Close stops delivery and closes all subscriber channels.
func (notifier *Notifier) Close() {
	notifier.mutex.Lock()
	if notifier.closed {
		notifier.mutex.Unlock()
		return
	}
	notifier.closed = true
	for identifier, subscriberChannel := range notifier.subscribers {
		close(subscriberChannel)
		delete(notifier.subscribers, identifier)
	}
	notifier.mutex.Unlock()
}

func (notifier *Notifier) removeSubscriber(identifier int64) {
	notifier.mutex.Lock()
	subscriberChannel, exists := notifier.subscribers[identifier]
	if exists {
		delete(notifier.subscribers, identifier)
		close(subscriberChannel)
	}
	notifier.mutex.Unlock()
}

// ToastSubscription represents a single toast stream consumer.
type ToastSubscription struct {
	notifier   *Notifier
	identifier int64
	toasts     chan Toast
	once       sync.Once
}

// Toasts exposes the receive-only toast channel.
func (subscription *ToastSubscription) Toasts() <-chan Toast {
	if subscription == nil {
		return nil
	}
	return subscription.toasts
}

// Close unregisters the subscription and closes its channel.
func (subscription *ToastSubscription) Close() {
	if subscription == nil {
		return
	}
	subscription.once.Do(func() {
		if subscription.notifier != nil {
			subscription.notifier.removeSubscriber(subscription.identifier)
		}
	})
}
