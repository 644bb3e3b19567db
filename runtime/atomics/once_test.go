package atomics

import (
	"sync"
	"testing"
	"time"
)

func TestOnceDoReturnsTrueFirstTime(t *testing.T) {
	o := Once{}
	called := 0
	if !o.Do(func() { called++ }) {
		t.Error("Expected first Do() to return true")
	}
	if o.Do(func() { called++ }) {
		t.Error("Expected second Do() to return false")
	}
	if called != 1 {
		t.Error("Expected f() to be called exactly once, was: ", called)
	}
}

func TestOnceDoNil(t *testing.T) {
	o := Once{}
	if !o.Do(nil) {
		t.Error("Expected Do(nil) to return true")
	}
	if !o.IsDone() {
		t.Error("Expected IsDone() after Do(nil)")
	}
}

func TestOnceWait(t *testing.T) {
	o := Once{}
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		o.Wait()
		wg.Done()
	}()
	time.Sleep(10 * time.Millisecond)
	o.Do(nil)
	wg.Wait()
}

func TestOnceDoneAfterDo(t *testing.T) {
	o := Once{}
	o.Do(nil)
	select {
	case <-o.Done():
	case <-time.After(time.Second):
		t.Error("Expected Done() channel to be closed")
	}
}

func TestBool(t *testing.T) {
	b := Bool{}
	if b.Get() {
		t.Error("Expected zero-value to be false")
	}
	b.Set(true)
	if !b.Get() {
		t.Error("Expected true after Set(true)")
	}
	if !b.Swap(false) {
		t.Error("Expected Swap to return previous value")
	}
	if b.Get() {
		t.Error("Expected false after Swap(false)")
	}
}
