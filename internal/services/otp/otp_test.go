package otp

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sgpfreelancing/platform_be/internal/store"
)

const email = "user@example.com"

func TestGenerateReturnsSixDigits(t *testing.T) {
	svc := NewService(store.NewMemory())

	for i := 0; i < 50; i++ {
		code, err := svc.Generate(email)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q has %d digits, want 6", code, len(code))
		}
		if code[0] == '0' {
			t.Fatalf("code %q has a leading zero", code)
		}
	}
}

func TestGenerateReplacesPreviousCode(t *testing.T) {
	svc := NewService(store.NewMemory(), WithRandInt(sequence(111111-100000, 222222-100000)))

	first, err := svc.Generate(email)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	second, err := svc.Generate(email)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if ok, _ := svc.Verify(email, first); ok {
		t.Errorf("old code %q still verifies", first)
	}
	if ok, _ := svc.Verify(email, second); !ok {
		t.Errorf("new code %q does not verify", second)
	}
}

func TestVerifyConsumesCode(t *testing.T) {
	svc := NewService(store.NewMemory())

	code, err := svc.Generate(email)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	ok, err := svc.Verify(email, code)
	if err != nil || !ok {
		t.Fatalf("first Verify = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = svc.Verify(email, code)
	if err != nil || ok {
		t.Fatalf("second Verify = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestVerifyWrongCodeLeavesRecord(t *testing.T) {
	svc := NewService(store.NewMemory())

	code, err := svc.Generate(email)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if ok, _ := svc.Verify(email, "000000"); ok {
		t.Fatal("wrong code verified")
	}
	// a failed attempt must not consume the record
	if ok, _ := svc.Verify(email, code); !ok {
		t.Fatal("correct code rejected after a failed attempt")
	}
}

func TestVerifyUnknownEmail(t *testing.T) {
	svc := NewService(store.NewMemory())

	ok, err := svc.Verify("nobody@example.com", "123456")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatal("verified with no record present")
	}
}

func TestVerifyExpiredCode(t *testing.T) {
	st := store.NewMemory()
	current := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}
	svc := NewService(st, WithClock(clock))

	code, err := svc.Generate(email)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	mu.Lock()
	current = current.Add(DefaultTTL + time.Second)
	mu.Unlock()

	ok, err := svc.Verify(email, code)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatal("expired code verified")
	}

	// the expired record was removed, not just skipped
	if _, err := st.LatestOtp(email); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expired record still present, LatestOtp err = %v", err)
	}
}

func TestVerifyAtExactExpiry(t *testing.T) {
	issued := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	current := issued
	svc := NewService(store.NewMemory(), WithClock(func() time.Time { return current }))

	code, err := svc.Generate(email)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// ExpiresAt itself is still valid; only strictly-later is expired.
	current = issued.Add(DefaultTTL)
	if ok, _ := svc.Verify(email, code); !ok {
		t.Fatal("code rejected at the expiry instant")
	}
}

func TestVerifyNormalizesEmail(t *testing.T) {
	svc := NewService(store.NewMemory())

	code, err := svc.Generate("  User@Example.COM ")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if ok, _ := svc.Verify("user@example.com", code); !ok {
		t.Fatal("normalized address does not match")
	}
}

func TestConcurrentVerifySingleUse(t *testing.T) {
	svc := NewService(store.NewMemory())

	code, err := svc.Generate(email)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := svc.Verify(email, code)
			if err != nil {
				t.Errorf("Verify: %v", err)
				return
			}
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for ok := range results {
		if ok {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Fatalf("%d verifications succeeded, want exactly 1", succeeded)
	}
}

func TestConcurrentGenerateLeavesOneLiveCode(t *testing.T) {
	svc := NewService(store.NewMemory())

	const workers = 8
	var wg sync.WaitGroup
	codes := make(chan string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := svc.Generate(email)
			if err != nil {
				t.Errorf("Generate: %v", err)
				return
			}
			codes <- code
		}()
	}
	wg.Wait()
	close(codes)

	// only one of the issued codes can still be live
	succeeded := 0
	for code := range codes {
		if ok, err := svc.Verify(email, code); err != nil {
			t.Fatalf("Verify: %v", err)
		} else if ok {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Fatalf("%d codes verified, want exactly 1", succeeded)
	}
}

// sequence returns a randInt stub yielding the given values in order,
// repeating the last one.
func sequence(vals ...int) func(int) int {
	i := 0
	return func(int) int {
		v := vals[i]
		if i < len(vals)-1 {
			i++
		}
		return v
	}
}
