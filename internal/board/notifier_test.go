package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testToastTTL = 60 * time.Millisecond

func TestNotifierIdentifiersAreMonotonic(testingT *testing.T) {
	notifier := NewNotifier(testToastTTL)
	defer notifier.Close()

	first := notifier.Success("saved")
	second := notifier.Error("broken")
	notifier.Dismiss(first.ID)
	notifier.Dismiss(second.ID)
	third := notifier.Info("heads up")

	require.Greater(testingT, second.ID, first.ID)
	require.Greater(testingT, third.ID, second.ID)
}

func TestNotifierToastsExpireAutomatically(testingT *testing.T) {
	notifier := NewNotifier(testToastTTL)
	defer notifier.Close()

	published := notifier.Success("saved")
	activeToasts := notifier.Active()
	require.Len(testingT, activeToasts, 1)
	require.Equal(testingT, ToastKindSuccess, activeToasts[0].Kind)
	require.Equal(testingT, published.ID, activeToasts[0].ID)

	require.Eventually(testingT, func() bool {
		return len(notifier.Active()) == 0
	}, testWaitTimeout, testWaitTick)
}

func TestNotifierManualDismiss(testingT *testing.T) {
	notifier := NewNotifier(time.Hour)
	defer notifier.Close()

	kept := notifier.Info("stays")
	dismissed := notifier.Error("goes")
	notifier.Dismiss(dismissed.ID)

	activeToasts := notifier.Active()
	require.Len(testingT, activeToasts, 1)
	require.Equal(testingT, kept.ID, activeToasts[0].ID)
}

func TestNotifierSubscriptionReceivesToasts(testingT *testing.T) {
	notifier := NewNotifier(time.Hour)
	defer notifier.Close()

	subscription := notifier.Subscribe()
	require.NotNil(testingT, subscription)
	defer subscription.Close()

	published := notifier.Success("delivered")

	select {
	case received := <-subscription.Toasts():
		require.Equal(testingT, published.ID, received.ID)
		require.Equal(testingT, published.Message, received.Message)
	case <-time.After(testWaitTimeout):
		testingT.Fatal("no toast delivered to subscriber")
	}
}

func TestNotifierCloseStopsDelivery(testingT *testing.T) {
	notifier := NewNotifier(time.Hour)
	subscription := notifier.Subscribe()
	require.NotNil(testingT, subscription)

	notifier.Close()

	_, channelOpen := <-subscription.Toasts()
	require.False(testingT, channelOpen)

	notifier.Success("after close")
	require.Empty(testingT, notifier.Active())
	require.Nil(testingT, notifier.Subscribe())
}
