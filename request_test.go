package prefs

import (
	"errors"
	"sync"
	"testing"
)

func TestTransientKeyQuotesComponents(t *testing.T) {
	got := TransientKey(CategoryLayoutAttribute, 3, "f1", "width")
	if got != `prefs:layout-attribute:3:"f1":"width"` {
		t.Fatalf("unexpected key %s", got)
	}

	// A colon inside the element id must not be able to mimic another name.
	a := TransientKey(CategoryLayoutAttribute, 3, `a":"b`, "c")
	b := TransientKey(CategoryLayoutAttribute, 3, "a", `b":"c`)
	if a == b {
		t.Fatalf("keys collide: %s", a)
	}
	if TransientKey(CategoryOutputProperty, 1, "", "skin") == TransientKey(CategoryStylesheetParameter, 1, "", "skin") {
		t.Fatalf("categories must not share keys")
	}
	if TransientKey(CategoryOutputProperty, 1, "", "skin") == TransientKey(CategoryOutputProperty, 2, "", "skin") {
		t.Fatalf("stylesheets must not share keys")
	}
}

func TestRequestBag(t *testing.T) {
	session := NewMemoryBag()
	req := NewRequest(session)

	bag, err := req.bag(ScopeSession)
	if err != nil || bag != AttributeBag(session) {
		t.Fatalf("expected session bag, got %v %v", bag, err)
	}
	if bag, err := req.bag(ScopeRequest); err != nil || bag == nil {
		t.Fatalf("expected request bag, got %v", err)
	}
	if _, err := req.bag(ScopePersistent); !errors.Is(err, ErrAttributeBagRequired) {
		t.Fatalf("persistent scope has no bag, got %v", err)
	}
	if _, err := NewRequest(nil).bag(ScopeSession); !errors.Is(err, ErrAttributeBagRequired) {
		t.Fatalf("expected ErrAttributeBagRequired, got %v", err)
	}
	var missing *Request
	if _, err := missing.bag(ScopeRequest); !errors.Is(err, ErrRequestRequired) {
		t.Fatalf("expected ErrRequestRequired, got %v", err)
	}
}

func TestMemoryBagConcurrentAccess(t *testing.T) {
	bag := &MemoryBag{}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := TransientKey(CategoryStylesheetParameter, int64(i), "", "skin")
			bag.SetAttribute(key, "red")
			if value, ok := bag.Attribute(key); !ok || value != "red" {
				t.Errorf("expected red for %s", key)
			}
		}(i)
	}
	wg.Wait()
	if bag.Len() != 8 {
		t.Fatalf("expected 8 attributes, got %d", bag.Len())
	}
	bag.RemoveAttribute(TransientKey(CategoryStylesheetParameter, 0, "", "skin"))
	if bag.Len() != 7 {
		t.Fatalf("expected removal, got %d", bag.Len())
	}
}
