package gdpr

import (
	"context"
	"io/ioutil"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/context/ctxhttp"

	"github.com/trusted-server/trusted-server/errortypes"
)

// DefaultStaleAfter is how old a snapshot may get before a background
// refresh is attempted. The IAB publishes the Global Vendor List weekly.
const DefaultStaleAfter = 7 * 24 * time.Hour

// refreshThrottle bounds how often a failing refresh is retried, so a dead
// GVL endpoint doesn't generate a request per evaluation.
const refreshThrottle = 10 * time.Minute

// VendorListCache holds the process-wide Global Vendor List snapshot.
//
// Reads never block: the current snapshot is an immutable value behind an
// atomic pointer, and a refresh publishes a complete replacement in a single
// swap. At most one refresh is in flight at a time. A failed refresh is
// logged and leaves the previous snapshot serving — staleness affects
// availability only and never grants consent the string bits wouldn't.
type VendorListCache struct {
	client     *http.Client
	url        string
	timeout    time.Duration
	staleAfter time.Duration

	snapshot    atomic.Value // *VendorList, nil until first successful fetch
	refreshing  int32
	lastAttempt atomic.Value // time.Time
}

// NewVendorListCache returns a cache that fetches from url. The snapshot is
// empty until the first successful Refresh; readers get nil and evaluate in
// the degraded string-bits-only mode until then.
func NewVendorListCache(client *http.Client, url string, timeout time.Duration) *VendorListCache {
	c := &VendorListCache{
		client:     client,
		url:        url,
		timeout:    timeout,
		staleAfter: DefaultStaleAfter,
	}
	c.lastAttempt.Store(time.Time{})
	return c
}

// Current returns the latest snapshot, or nil if none has been fetched yet.
// A stale (or missing) snapshot triggers a background refresh; the caller is
// never blocked on it and keeps whatever snapshot is current.
func (c *VendorListCache) Current() *VendorList {
	list, _ := c.snapshot.Load().(*VendorList)

	if list == nil || time.Since(list.LastUpdated) > c.staleAfter {
		c.refreshInBackground()
	}
	return list
}

// Refresh fetches and publishes a new snapshot, serialized so that at most
// one fetch is in flight. A refresh that loses the race returns nil without
// fetching.
func (c *VendorListCache) Refresh(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&c.refreshing, 0, 1) {
		return nil
	}
	defer atomic.StoreInt32(&c.refreshing, 0)
	c.lastAttempt.Store(time.Now())

	list, err := c.fetch(ctx)
	if err != nil {
		glog.Warningf("Global Vendor List refresh failed, keeping previous snapshot: %v", err)
		return err
	}

	c.snapshot.Store(list)
	glog.Infof("Global Vendor List refreshed: version %d, %d vendors", list.Version, len(list.Vendors))
	return nil
}

func (c *VendorListCache) refreshInBackground() {
	if time.Since(c.lastAttempt.Load().(time.Time)) < refreshThrottle {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		c.Refresh(ctx)
	}()
}

func (c *VendorListCache) fetch(ctx context.Context) (*VendorList, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequest("GET", c.url, nil)
	if err != nil {
		return nil, &errortypes.VendorListUnavailable{Message: "building GET " + c.url + ": " + err.Error()}
	}

	resp, err := ctxhttp.Do(ctx, c.client, req)
	if err != nil {
		return nil, &errortypes.VendorListUnavailable{Message: "calling GET " + c.url + ": " + err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &errortypes.VendorListUnavailable{Message: "GET " + c.url + " returned " + resp.Status}
	}

	respBody, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, &errortypes.VendorListUnavailable{Message: "reading response from GET " + c.url + ": " + err.Error()}
	}

	list, err := ParseVendorList(respBody)
	if err != nil {
		return nil, &errortypes.VendorListUnavailable{Message: "GET " + c.url + " returned malformed JSON: " + err.Error()}
	}
	return list, nil
}
