package models

import (
	"testing"

	"github.com/shipflow-next/internal/constants"
)

func TestSupersedesForward(t *testing.T) {
	// 正向事件严格大于当前才推进
	cases := []struct {
		incoming Bucket
		current  Bucket
		want     bool
	}{
		{BucketPickedUp, BucketAwaitingPickup, true},
		{BucketInTransit, BucketPickedUp, true},
		{BucketDelivered, BucketOutForDelivery, true},
		{BucketPickedUp, BucketPickedUp, false},
		{BucketPickedUp, BucketInTransit, false},
		{BucketAwaitingPickup, BucketCourierAssigned, false},
		{BucketDelivered, BucketAwaitingPickup, true},
	}
	for _, c := range cases {
		if got := c.incoming.Supersedes(c.current); got != c.want {
			t.Fatalf("Supersedes(%d over %d) = %v, want %v", c.incoming, c.current, got, c.want)
		}
	}
}

func TestSupersedesLockedTerminals(t *testing.T) {
	// 已签收/RTO/取消 为锁定态，任何事件不再推进
	for _, current := range []Bucket{BucketDelivered, BucketRTO, BucketCanceled} {
		for incoming := BucketAwaitingPickup; incoming <= BucketCanceled; incoming++ {
			if incoming.Supersedes(current) {
				t.Fatalf("bucket %d superseded locked %d", incoming, current)
			}
		}
	}
}

func TestSupersedesSideBranch(t *testing.T) {
	// 旁路事件可以从任意未锁定状态进入
	for _, incoming := range []Bucket{BucketNDR, BucketRTO, BucketCanceled} {
		for _, current := range []Bucket{BucketAwaitingPickup, BucketCourierAssigned, BucketPickedUp, BucketInTransit, BucketOutForDelivery} {
			if !incoming.Supersedes(current) {
				t.Fatalf("side branch %d did not supersede %d", incoming, current)
			}
		}
	}
	// NDR 之后允许 RTO/取消，但不允许回到普通正向状态
	if !BucketRTO.Supersedes(BucketNDR) {
		t.Fatalf("RTO should supersede NDR")
	}
	if BucketInTransit.Supersedes(BucketNDR) {
		t.Fatalf("in transit should not supersede NDR")
	}
	// 再派送成功：NDR 之后仅"已签收"可推进
	if !BucketDelivered.Supersedes(BucketNDR) {
		t.Fatalf("delivered should supersede NDR")
	}
}

func TestSupersedesUnknownInert(t *testing.T) {
	for current := BucketAwaitingPickup; current <= BucketCanceled; current++ {
		if BucketUnknown.Supersedes(current) {
			t.Fatalf("unknown superseded %d", current)
		}
	}
}

func TestOrderStatusDerivation(t *testing.T) {
	cases := []struct {
		bucket Bucket
		want   string
		ok     bool
	}{
		{BucketUnknown, "", false},
		{BucketAwaitingPickup, "", false},
		{BucketCourierAssigned, constants.OrderStatusReadyToShip, true},
		{BucketPickedUp, constants.OrderStatusShipped, true},
		{BucketInTransit, constants.OrderStatusInTransit, true},
		{BucketOutForDelivery, constants.OrderStatusOutForDelivery, true},
		{BucketDelivered, constants.OrderStatusDelivered, true},
		{BucketNDR, constants.OrderStatusNDR, true},
		{BucketRTO, constants.OrderStatusRTO, true},
		{BucketCanceled, constants.OrderStatusCanceled, true},
	}
	for _, c := range cases {
		got, ok := c.bucket.OrderStatus()
		if got != c.want || ok != c.ok {
			t.Fatalf("OrderStatus(%d) = (%q, %v), want (%q, %v)", c.bucket, got, ok, c.want, c.ok)
		}
	}
}

func TestStatusLabelCoversAllBuckets(t *testing.T) {
	for b := BucketAwaitingPickup; b <= BucketCanceled; b++ {
		if b.StatusLabel() == "" {
			t.Fatalf("bucket %d has no status label", b)
		}
	}
	if BucketUnknown.StatusLabel() != "" {
		t.Fatalf("unknown bucket should have empty label")
	}
}

func TestEffectiveBucket(t *testing.T) {
	m := &BucketMapping{Bucket: BucketInTransit, IsMapped: true, IsActive: true}
	if m.EffectiveBucket() != BucketInTransit {
		t.Fatalf("mapped active mapping should expose its bucket")
	}
	m.IsActive = false
	if m.EffectiveBucket() != BucketUnknown {
		t.Fatalf("inactive mapping should resolve to unknown")
	}
	m.IsActive = true
	m.IsMapped = false
	if m.EffectiveBucket() != BucketUnknown {
		t.Fatalf("unmapped mapping should resolve to unknown")
	}
	var nilMapping *BucketMapping
	if nilMapping.EffectiveBucket() != BucketUnknown {
		t.Fatalf("nil mapping should resolve to unknown")
	}
}
