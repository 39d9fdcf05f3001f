package pick

import (
	"testing"
	"time"

	"github.com/Digital-Shane/csv-notes/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/google/go-cmp/cmp"
)

func startOrderTestModel(t *testing.T, model *OrderModel, opts ...teatest.TestOption) *teatest.TestModel {
	t.Helper()
	options := append([]teatest.TestOption{teatest.WithInitialTermSize(80, 16)}, opts...)
	tm := teatest.NewTestModel(t, model, options...)
	t.Cleanup(func() {
		_ = tm.Quit()
	})
	return tm
}

func finalOrderModel(t *testing.T, tm *teatest.TestModel) *OrderModel {
	t.Helper()
	final := tm.FinalModel(t, teatest.WithFinalTimeout(2*time.Second))
	model, ok := final.(*OrderModel)
	if !ok {
		t.Fatalf("Final model type = %T, want *OrderModel", final)
	}
	return model
}

func TestOrderModelStartsEmpty(t *testing.T) {
	model := NewOrderModel("people.csv", []string{"Name", "Email"}, theme.Default())

	if got := len(model.Fields()); got != 0 {
		t.Errorf("len(Fields()) = %d, want 0 before any picks", got)
	}
	if model.Confirmed() {
		t.Error("Confirmed() = true, want false before any input")
	}
}

func TestOrderModelPickSequenceAndRenumber(t *testing.T) {
	model := NewOrderModel("people.csv", []string{"Name", "Email", "Team"}, theme.Default())
	tm := startOrderTestModel(t, model)

	tm.Send(tea.WindowSizeMsg{Width: 80, Height: 16})
	waitForPickOutput(t, tm, "Naming Order - people.csv")

	sendKey(tm, tea.KeySpace)
	sendKey(tm, tea.KeyDown)
	sendKey(tm, tea.KeySpace)
	if diff := cmp.Diff([]string{"Name", "Email"}, model.Fields()); diff != "" {
		t.Errorf("Fields() after two picks diff (-want +got):\n%s", diff)
	}

	sendKey(tm, tea.KeyUp)
	sendKey(tm, tea.KeySpace)
	if diff := cmp.Diff([]string{"Email"}, model.Fields()); diff != "" {
		t.Errorf("Fields() after unpicking first diff (-want +got):\n%s", diff)
	}
	if got := model.orderOf(1); got != 1 {
		t.Errorf("orderOf(1) after renumber = %d, want 1", got)
	}

	sendKey(tm, tea.KeyEsc)
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
}

func TestOrderModelClearKey(t *testing.T) {
	model := NewOrderModel("people.csv", []string{"Name", "Email"}, theme.Default())
	tm := startOrderTestModel(t, model)

	tm.Send(tea.WindowSizeMsg{Width: 80, Height: 16})
	waitForPickOutput(t, tm, "Naming Order")

	sendKey(tm, tea.KeySpace)
	sendKey(tm, tea.KeyDown)
	sendKey(tm, tea.KeySpace)
	if got := len(model.Fields()); got != 2 {
		t.Fatalf("len(Fields()) = %d, want 2 before clearing", got)
	}

	sendRune(tm, 'c')
	if got := len(model.Fields()); got != 0 {
		t.Errorf("len(Fields()) after c = %d, want 0", got)
	}

	sendKey(tm, tea.KeyEsc)
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
}

func TestOrderModelRequiresPick(t *testing.T) {
	model := NewOrderModel("people.csv", []string{"Name", "Email"}, theme.Default())
	tm := startOrderTestModel(t, model)

	tm.Send(tea.WindowSizeMsg{Width: 80, Height: 16})
	waitForPickOutput(t, tm, "Naming Order")

	sendKey(tm, tea.KeyEnter)
	waitForPickOutput(t, tm, "Pick at least one naming column")
	if model.Confirmed() {
		t.Fatal("Confirmed() = true, want false after Enter with no picks")
	}

	sendKey(tm, tea.KeySpace)
	sendKey(tm, tea.KeyEnter)
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))

	final := finalOrderModel(t, tm)
	if !final.Confirmed() {
		t.Error("Confirmed() = false, want true after picking and confirming")
	}
	if diff := cmp.Diff([]string{"Name"}, final.Fields()); diff != "" {
		t.Errorf("final Fields() diff (-want +got):\n%s", diff)
	}
}

func TestOrderModelPreviewShowsJoinedName(t *testing.T) {
	model := NewOrderModel("people.csv", []string{"Name", "Email", "Team"}, theme.Default())
	tm := startOrderTestModel(t, model)

	tm.Send(tea.WindowSizeMsg{Width: 80, Height: 16})
	waitForPickOutput(t, tm, "Name preview: (pick columns)")

	sendKey(tm, tea.KeySpace)
	sendKey(tm, tea.KeyDown)
	sendKey(tm, tea.KeyDown)
	sendKey(tm, tea.KeySpace)
	waitForPickOutput(t, tm, "Name preview: Name - Team.md")

	sendKey(tm, tea.KeyEsc)
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
}
