package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartspend/internal/core"
	"smartspend/internal/ports"
)

type fakeCompleter struct {
	mu       sync.Mutex
	response string
	err      error
	requests []ports.CompletionRequest
	block    chan struct{}
}

func (f *fakeCompleter) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.response, f.err
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func newGateway(llm ports.Completer) *Gateway {
	cfg := DefaultConfig()
	cfg.Model = "test-model"
	return New(llm, cfg, nil)
}

func money(cents int64) core.Money { return core.Money{Cents: cents} }

func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		want     core.Category
	}{
		{"exact", "Transportation", nil, core.CategoryTransport},
		{"padded", "  Food & Dining\n", nil, core.CategoryFood},
		{"quoted", `"Travel".`, nil, core.CategoryTravel},
		{"case", "utilities", nil, core.CategoryUtilities},
		{"unknown", "Groceries", nil, FallbackCategory},
		{"chatty", "I think this is Food & Dining", nil, FallbackCategory},
		{"empty", "", nil, FallbackCategory},
		{"network error", "", errors.New("connection refused"), FallbackCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeCompleter{response: tt.response, err: tt.err}
			got := newGateway(llm).Categorize(context.Background(), "Uber ride", money(3200))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategorizePrompt(t *testing.T) {
	llm := &fakeCompleter{response: "Transportation"}
	newGateway(llm).Categorize(context.Background(), "Uber to Downtown", money(3250))

	require.Equal(t, 1, llm.calls())
	req := llm.requests[0]
	assert.Equal(t, "test-model", req.Model)
	assert.Nil(t, req.Shape)
	assert.Contains(t, req.Prompt, `The user spent 32.5 on "Uber to Downtown".`)
	assert.Contains(t, req.Prompt, "Food & Dining, Transportation, Housing, Utilities, Entertainment, Shopping, Health & Wellness, Travel, Other")
	assert.Contains(t, req.Prompt, `If unsure, return "Other".`)
}

func TestCategorizeBlankDescriptionSkipsModel(t *testing.T) {
	llm := &fakeCompleter{response: "Travel"}
	got := newGateway(llm).Categorize(context.Background(), "   ", money(100))
	assert.Equal(t, FallbackCategory, got)
	assert.Zero(t, llm.calls())
}

func TestCategorizeCachesSuccess(t *testing.T) {
	llm := &fakeCompleter{response: "Shopping"}
	g := newGateway(llm)
	ctx := context.Background()

	assert.Equal(t, core.CategoryShopping, g.Categorize(ctx, "Running shoes", money(8995)))
	assert.Equal(t, core.CategoryShopping, g.Categorize(ctx, "running  SHOES", money(8995)))
	assert.Equal(t, 1, llm.calls())

	g.Categorize(ctx, "Running shoes", money(100))
	assert.Equal(t, 2, llm.calls())
}

func TestCategorizeDoesNotCacheFallback(t *testing.T) {
	llm := &fakeCompleter{err: errors.New("timeout")}
	g := newGateway(llm)
	ctx := context.Background()

	g.Categorize(ctx, "Hotel", money(100))
	llm.err = nil
	llm.response = "Travel"
	assert.Equal(t, core.CategoryTravel, g.Categorize(ctx, "Hotel", money(100)))
	assert.Equal(t, 2, llm.calls())
}

func TestCategorizeWithoutCompleter(t *testing.T) {
	g := New(nil, DefaultConfig(), nil)
	assert.Equal(t, FallbackCategory, g.Categorize(context.Background(), "Coffee", money(450)))
}

func TestCategorizeFormRejectsConcurrentRequest(t *testing.T) {
	gate := make(chan struct{})
	llm := &fakeCompleter{response: "Food & Dining", block: gate}
	g := newGateway(llm)
	ctx := context.Background()

	done := make(chan core.Category)
	go func() {
		c, err := g.CategorizeForm(ctx, "form-1", "Coffee", money(450))
		assert.NoError(t, err)
		done <- c
	}()

	require.Eventually(t, func() bool { return llm.calls() == 1 }, time.Second, 5*time.Millisecond)

	_, err := g.CategorizeForm(ctx, "form-1", "Bagel", money(300))
	assert.ErrorIs(t, err, ErrBusy)

	llm.mu.Lock()
	llm.block = nil
	llm.mu.Unlock()
	other, err := g.CategorizeForm(ctx, "form-2", "Bagel", money(300))
	require.NoError(t, err)
	assert.Equal(t, core.CategoryFood, other)

	close(gate)
	assert.Equal(t, core.CategoryFood, <-done)

	c, err := g.CategorizeForm(ctx, "form-1", "Tea", money(300))
	require.NoError(t, err)
	assert.Equal(t, core.CategoryFood, c)
}

func sampleTransactions() []core.Transaction {
	d := core.NewDate(2024, 3, 10)
	return []core.Transaction{
		{ID: "1", Amount: money(1450), Description: "Morning Coffee & Bagel", Category: core.CategoryFood, Date: d},
		{ID: "2", Amount: money(3200), Description: "Uber to Downtown", Category: core.CategoryTransport, Date: d.AddDays(-1)},
		{ID: "3", Amount: money(12540), Description: "Weekly Groceries", Category: core.CategoryFood, Date: d.AddDays(-3)},
	}
}

func TestGenerateAdvice(t *testing.T) {
	llm := &fakeCompleter{response: `{"title":"Latte Legend","advice":"Your coffee habit funds a small café."}`}
	got := newGateway(llm).GenerateAdvice(context.Background(), sampleTransactions(), money(250000), ToneFunny)

	assert.Equal(t, Advice{Title: "Latte Legend", Body: "Your coffee habit funds a small café."}, got)
	assert.False(t, got.IsFallback())

	req := llm.requests[0]
	require.NotNil(t, req.Shape)
	assert.Equal(t, []string{"title", "advice"}, req.Shape.Fields)
	assert.Contains(t, req.Prompt, "Total Spent: $171.9")
	assert.Contains(t, req.Prompt, "Monthly Budget: $2500")
	assert.Contains(t, req.Prompt, `Breakdown: {"Food & Dining":139.9,"Transportation":32}`)
	assert.Contains(t, req.Prompt, "Recent Transactions: Morning Coffee & Bagel: $14.5, Uber to Downtown: $32, Weekly Groceries: $125.4")
	assert.Contains(t, req.Prompt, "User is under budget.")
	assert.Contains(t, req.Prompt, "in a FUNNY tone")
}

func TestGenerateAdviceAcceptsFencedJSON(t *testing.T) {
	llm := &fakeCompleter{response: "```json\n{\"title\":\"Steady\",\"advice\":\"Keep tracking.\"}\n```"}
	got := newGateway(llm).GenerateAdvice(context.Background(), nil, money(0), ToneSerious)
	assert.Equal(t, Advice{Title: "Steady", Body: "Keep tracking."}, got)
}

func TestGenerateAdviceFallback(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{"not json", "Spend less, friend.", nil},
		{"missing advice", `{"title":"Hi"}`, nil},
		{"empty title", `{"title":"  ","advice":"x"}`, nil},
		{"wrong types", `{"title":1,"advice":2}`, nil},
		{"network", "", errors.New("dial tcp: no route to host")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeCompleter{response: tt.response, err: tt.err}
			got := newGateway(llm).GenerateAdvice(context.Background(), sampleTransactions(), money(10000), ToneSerious)
			assert.Equal(t, FallbackAdvice, got)
			assert.True(t, got.IsFallback())
			assert.Equal(t, 1, llm.calls())
		})
	}
}

func TestAdvicePromptBudgetFlags(t *testing.T) {
	txs := sampleTransactions() // 171.90 total
	tests := []struct {
		name    string
		budget  int64
		want    string
		notWant []string
	}{
		{"unset", 0, "Monthly Budget: $Not set", []string{"over budget", "under budget"}},
		{"over", 10000, "CRITICAL: User is over budget.", []string{"under budget"}},
		{"under", 50000, "User is under budget.", []string{"over budget"}},
		{"equal", 17190, "Monthly Budget: $171.9", []string{"over budget", "under budget"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := advicePrompt(txs, money(tt.budget), ToneSerious)
			assert.Contains(t, p, tt.want)
			for _, s := range tt.notWant {
				assert.NotContains(t, p, s)
			}
			assert.Contains(t, p, "in a SERIOUS tone")
		})
	}
}

func TestAdvicePromptLimitsTransactions(t *testing.T) {
	var txs []core.Transaction
	for i := 0; i < 15; i++ {
		txs = append(txs, core.Transaction{
			ID: fmt.Sprint(i), Amount: money(100), Description: fmt.Sprintf("item-%02d", i),
			Category: core.CategoryOther, Date: core.NewDate(2024, 1, 1),
		})
	}
	p := advicePrompt(txs, money(0), ToneFunny)
	assert.Contains(t, p, "item-09: $1")
	assert.NotContains(t, p, "item-10")
	assert.Equal(t, 1, strings.Count(p, "Recent Transactions:"))
}

func TestParseTone(t *testing.T) {
	for in, want := range map[string]Tone{"": ToneFunny, "funny": ToneFunny, "SERIOUS": ToneSerious, " serious ": ToneSerious} {
		got, err := ParseTone(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseTone("angry")
	assert.ErrorIs(t, err, ErrInvalidTone)
}

func TestInFlight(t *testing.T) {
	f := NewInFlight()
	release, err := f.Acquire("a")
	require.NoError(t, err)
	assert.True(t, f.Busy("a"))

	_, err = f.Acquire("a")
	assert.ErrorIs(t, err, ErrBusy)

	releaseB, err := f.Acquire("b")
	require.NoError(t, err)
	releaseB()

	release()
	release()
	assert.False(t, f.Busy("a"))
	_, err = f.Acquire("a")
	assert.NoError(t, err)
}

func TestTruncateKeepsWholeRunes(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 80))
	got := truncate(strings.Repeat("€", 100), 80)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("€", 80)+"...", got)
}
