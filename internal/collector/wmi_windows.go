//go:build windows

package collector

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
	"go.uber.org/zap"
)

// wmiQuerier resolves properties through WMI via the SWbemLocator
// automation interface. Each query runs on its own COM-initialized OS
// thread and is bounded by the configured timeout; a hung management
// service produces a miss, not a hang.
type wmiQuerier struct {
	timeout time.Duration
	logger  *zap.Logger
}

// newManagementQuerier verifies that the WMI automation subsystem can be
// set up at all. That verification failing is fatal to collector
// construction; individual query failures afterwards are not.
func newManagementQuerier(timeout time.Duration, logger *zap.Logger) (Querier, error) {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	q := &wmiQuerier{timeout: timeout, logger: logger.Named("wmi")}
	if err := q.checkSubsystem(); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *wmiQuerier) checkSubsystem() error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- q.withServices(func(services *ole.IDispatch) error { return nil })
	}()
	select {
	case err := <-errCh:
		return err
	case <-time.After(q.timeout):
		return fmt.Errorf("management service did not respond within %s", q.timeout)
	}
}

// QueryProperty implements Querier. All failures, including timeout, map
// to a miss. A timed-out query abandons its goroutine mid-COM-call; the
// goroutine exits when the call eventually returns, but a hung management
// service can hold one blocked goroutine per timed-out query until then.
func (q *wmiQuerier) QueryProperty(class, property string) (string, bool) {
	type result struct {
		value string
		ok    bool
	}
	resCh := make(chan result, 1)
	go func() {
		v, ok := q.query(class, property)
		resCh <- result{v, ok}
	}()

	select {
	case r := <-resCh:
		return r.value, r.ok
	case <-time.After(q.timeout):
		q.logger.Warn("management query timed out",
			zap.String("class", class),
			zap.String("property", property),
			zap.Duration("timeout", q.timeout))
		return "", false
	}
}

func (q *wmiQuerier) query(class, property string) (string, bool) {
	var value string
	err := q.withServices(func(services *ole.IDispatch) error {
		wql := fmt.Sprintf("SELECT %s FROM %s", property, class)
		resultRaw, err := oleutil.CallMethod(services, "ExecQuery", wql)
		if err != nil {
			return fmt.Errorf("ExecQuery failed: %w", err)
		}
		result := resultRaw.ToIDispatch()
		defer result.Release()

		countVar, err := oleutil.GetProperty(result, "Count")
		if err != nil {
			return fmt.Errorf("failed to read result count: %w", err)
		}
		defer countVar.Clear()
		if countVar.Val == 0 {
			return fmt.Errorf("no instances of %s", class)
		}

		itemRaw, err := oleutil.CallMethod(result, "ItemIndex", 0)
		if err != nil {
			return fmt.Errorf("failed to fetch first instance: %w", err)
		}
		item := itemRaw.ToIDispatch()
		defer item.Release()

		propVar, err := oleutil.GetProperty(item, property)
		if err != nil {
			return fmt.Errorf("failed to read property %s: %w", property, err)
		}
		defer propVar.Clear()

		value = propVar.ToString()
		return nil
	})
	if err != nil {
		q.logger.Warn("management query failed",
			zap.String("class", class),
			zap.String("property", property),
			zap.Error(err))
		return "", false
	}
	return value, true
}

// withServices runs action against a connected SWbemServices object on a
// dedicated COM-initialized OS thread.
func (q *wmiQuerier) withServices(action func(services *ole.IDispatch) error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
		var oleErr *ole.OleError
		// S_OK (0) and S_FALSE (1) both mean COM is usable on this thread.
		if !errors.As(err, &oleErr) || (oleErr.Code() != 0 && oleErr.Code() != 1) {
			return fmt.Errorf("failed to initialize COM: %w", err)
		}
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("WbemScripting.SWbemLocator")
	if err != nil {
		return fmt.Errorf("failed to create WMI locator: %w", err)
	}
	defer unknown.Release()

	locator, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return fmt.Errorf("failed to query WMI locator: %w", err)
	}
	defer locator.Release()

	servicesRaw, err := oleutil.CallMethod(locator, "ConnectServer", "", `root\cimv2`)
	if err != nil {
		return fmt.Errorf("failed to connect to management service: %w", err)
	}
	services := servicesRaw.ToIDispatch()
	defer services.Release()

	return action(services)
}
