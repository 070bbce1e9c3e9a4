package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Joseda-hg/taskgroove/internal/model"
	"github.com/Joseda-hg/taskgroove/internal/tracker"
	goerrors "github.com/go-errors/errors"
	"github.com/google/uuid"
	"github.com/jesseduffield/gocui"
)

const (
	viewHeader     = "header"
	viewFooter     = "footer"
	viewTasks      = "tasks"
	viewCompleted  = "completed"
	viewCalendar   = "calendar"
	viewAgenda     = "agenda"
	viewDetail     = "detail"
	viewForm       = "form"
	viewHelp       = "help"
	viewReschedule = "reschedule"
)

// HistoryLister is implemented by *db.Store.
type HistoryLister interface {
	ListHistory(ctx context.Context, taskID uuid.UUID) ([]model.HistoryEntry, error)
}

type UI struct {
	tracker *tracker.Tracker
	history HistoryLister

	guiMu sync.Mutex
	gui   *gocui.Gui

	filter      model.Filter
	monthOffset int

	tasks     []model.Task
	completed []model.Task
	hasMore   bool
	remaining int
	agenda    []model.DayBucket
	grid      []model.CalendarDate
	months    int
	stats     model.Stats
	toast     *tracker.UndoToast
	entries   []model.HistoryEntry

	selectedTasks     int
	selectedCompleted int
	selectedQuick     int
	focus             string

	form             *formState
	formEditor       *formEditor
	rescheduleActive bool
	helpActive       bool
	status           string
}

type formState struct {
	taskID uuid.UUID
	fields []formField
	index  int
}

type formEditor struct {
	ui *UI
}

// New builds a UI reading history from history, which may be nil. Pass
// Changed to tracker.WithOnChange so timer-driven changes redraw the screen.
func New(history HistoryLister) *UI {
	ui := &UI{
		history: history,
		filter:  model.FilterAll,
		focus:   viewTasks,
	}
	ui.formEditor = &formEditor{ui: ui}
	return ui
}

// SetHistory replaces the history source. The UI is usually built before the
// store is open so that Changed can be handed to the tracker.
func (u *UI) SetHistory(history HistoryLister) {
	u.history = history
}

// Changed schedules a reload on the main loop. It is safe to call from any
// goroutine, before or after Run.
func (u *UI) Changed() {
	u.guiMu.Lock()
	gui := u.gui
	u.guiMu.Unlock()
	if gui == nil {
		return
	}
	gui.Update(func(*gocui.Gui) error {
		return u.loadTasks()
	})
}

func (u *UI) Run(tr *tracker.Tracker) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	u.tracker = tr
	gui.Mouse = true
	gui.SetManagerFunc(u.layout)
	if err := u.bindKeys(gui); err != nil {
		return err
	}
	if err := u.loadTasks(); err != nil {
		return err
	}

	u.guiMu.Lock()
	u.gui = gui
	u.guiMu.Unlock()
	defer func() {
		u.guiMu.Lock()
		u.gui = nil
		u.guiMu.Unlock()
	}()

	if err := gui.MainLoop(); err != nil && !goerrors.Is(err, gocui.ErrQuit) {
		return err
	}

	return nil
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	if err := gui.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, u.quit); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'q', gocui.ModNone, u.quit); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'r', gocui.ModNone, u.reload); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'f', gocui.ModNone, u.nextFilter); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'F', gocui.ModNone, u.prevFilter); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'a', gocui.ModNone, u.addTask); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'e', gocui.ModNone, u.editTask); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'd', gocui.ModNone, u.deleteTask); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'x', gocui.ModNone, u.toggleDone); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 's', gocui.ModNone, u.openReschedule); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'u', gocui.ModNone, u.undoReschedule); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'm', gocui.ModNone, u.loadMoreCompleted); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '<', gocui.ModNone, u.prevMonth); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '>', gocui.ModNone, u.nextMonth); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '?', gocui.ModNone, u.toggleHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", gocui.KeyTab, gocui.ModNone, u.switchFocus); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '1', gocui.ModNone, u.focusTasks); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '2', gocui.ModNone, u.focusCompleted); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '3', gocui.ModNone, u.focusCalendar); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '4', gocui.ModNone, u.focusAgenda); err != nil {
		return err
	}
	for _, name := range []string{viewTasks, viewCompleted, viewCalendar, viewAgenda} {
		if err := gui.SetKeybinding(name, gocui.KeyArrowDown, gocui.ModNone, u.moveDown); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, 'j', gocui.ModNone, u.moveDown); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, gocui.KeyArrowUp, gocui.ModNone, u.moveUp); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, 'k', gocui.ModNone, u.moveUp); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, gocui.KeyEsc, gocui.ModNone, u.dismissUndo); err != nil {
			return err
		}
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyEnter, gocui.ModNone, u.submitFormNow); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyCtrlJ, gocui.ModNone, u.submitFormNow); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyTab, gocui.ModNone, u.nextFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyBacktab, gocui.ModNone, u.prevFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyArrowDown, gocui.ModNone, u.nextFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyArrowUp, gocui.ModNone, u.prevFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyEsc, gocui.ModNone, u.cancelForm); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewReschedule, gocui.KeyArrowDown, gocui.ModNone, u.nextQuickOption); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewReschedule, 'j', gocui.ModNone, u.nextQuickOption); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewReschedule, gocui.KeyArrowUp, gocui.ModNone, u.prevQuickOption); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewReschedule, 'k', gocui.ModNone, u.prevQuickOption); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewReschedule, gocui.KeyEnter, gocui.ModNone, u.submitReschedule); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewReschedule, gocui.KeyEsc, gocui.ModNone, u.cancelReschedule); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, gocui.KeyEsc, gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, 'q', gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, '?', gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	for _, name := range []string{viewTasks, viewCompleted} {
		viewName := name
		if err := gui.SetViewClickBinding(&gocui.ViewMouseBinding{ViewName: viewName, Key: gocui.MouseLeft, Handler: func(opts gocui.ViewMouseBindingOpts) error {
			return u.onListClick(gui, viewName, opts)
		}}); err != nil {
			return err
		}
	}
	return u.bindMouseScroll(gui)
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.Wrap = true
	headerView.FgColor = gocui.ColorDefault
	u.renderHeader(headerView)

	footerY1 := maxY - 1
	footerY0 := max(footerY1-3, 2)
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	footerView.BgColor = gocui.ColorDefault
	u.renderFooter(footerView)

	bodyTop := 2
	bodyBottom := footerY0 - 1
	if bodyBottom < bodyTop {
		return nil
	}

	layout := computeLayout(maxX, bodyBottom-bodyTop+1)
	leftX0 := 0
	leftX1 := leftX0 + layout.leftWidth - 1
	rightX0 := min(leftX1+1, maxX-1)
	rightX1 := maxX - 1

	tasksY0 := bodyTop
	tasksY1 := tasksY0 + layout.tasksHeight - 1
	completedY0 := tasksY1 + 1
	completedY1 := bodyBottom

	calendarY0 := bodyTop
	calendarY1 := calendarY0 + layout.calendarHeight - 1
	agendaY0 := calendarY1 + 1
	agendaY1 := agendaY0 + layout.agendaHeight - 1
	detailY0 := agendaY1 + 1
	detailY1 := bodyBottom

	tasksView, err := gui.SetView(viewTasks, leftX0, tasksY0, leftX1, tasksY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	tasksView.Title = fmt.Sprintf("1 %s (%d)", u.filter.Label(), len(u.tasks))
	applyViewStyle(tasksView, u.focus == viewTasks, true)
	u.renderTaskList(tasksView, u.tasks, u.selectedTasks, u.focus == viewTasks)

	completedView, err := gui.SetView(viewCompleted, leftX0, completedY0, leftX1, completedY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		completedView.TitleColor = gocui.ColorGreen
	}
	completedView.Title = fmt.Sprintf("2 Completed (%d)", u.stats.Completed)
	applyViewStyle(completedView, u.focus == viewCompleted, true)
	u.renderCompleted(completedView)

	calendarView, err := gui.SetView(viewCalendar, rightX0, calendarY0, rightX1, calendarY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		calendarView.Title = "3 Calendar"
	}
	applyViewStyle(calendarView, u.focus == viewCalendar, false)
	u.renderCalendar(calendarView)

	agendaView, err := gui.SetView(viewAgenda, rightX0, agendaY0, rightX1, agendaY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		agendaView.Title = "4 Agenda"
		agendaView.TitleColor = gocui.ColorYellow
	}
	applyViewStyle(agendaView, u.focus == viewAgenda, false)
	u.renderAgenda(agendaView)

	detailView, err := gui.SetView(viewDetail, rightX0, detailY0, rightX1, detailY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		detailView.Title = "Task"
		detailView.Wrap = true
	}
	applyViewStyle(detailView, false, false)
	u.renderDetail(detailView)

	_, _ = gui.SetViewOnTop(viewHeader)
	_, _ = gui.SetViewOnTop(viewFooter)

	if u.form != nil {
		if err := u.showForm(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewForm)
	}

	if u.rescheduleActive {
		if err := u.showReschedule(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewReschedule)
	}

	if u.helpActive {
		if err := u.showHelp(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewHelp)
	}

	if gui.CurrentView() == nil {
		_, _ = gui.SetCurrentView(u.focus)
	}

	gui.Cursor = u.form != nil

	return nil
}

type layout struct {
	leftWidth       int
	tasksHeight     int
	completedHeight int
	calendarHeight  int
	agendaHeight    int
	detailHeight    int
}

// calendarRows fits a title, a weekday header and six weeks inside a frame.
const calendarRows = 10

func computeLayout(width, height int) layout {
	safeWidth := max(width, 40)
	safeHeight := max(height, 12)

	leftWidth := safeWidth / 2
	if leftWidth < 30 {
		leftWidth = 30
	}
	if leftWidth > safeWidth-30 {
		leftWidth = safeWidth / 2
	}

	tasksHeight := int(float64(safeHeight) * 0.6)
	if tasksHeight < 4 {
		tasksHeight = 4
	}
	completedHeight := safeHeight - tasksHeight

	calendarHeight := min(calendarRows, safeHeight-6)
	rest := safeHeight - calendarHeight
	agendaHeight := rest / 2
	if agendaHeight < 3 {
		agendaHeight = 3
	}
	detailHeight := max(rest-agendaHeight, 3)

	return layout{
		leftWidth:       leftWidth,
		tasksHeight:     tasksHeight,
		completedHeight: completedHeight,
		calendarHeight:  calendarHeight,
		agendaHeight:    agendaHeight,
		detailHeight:    detailHeight,
	}
}

// loadTasks refreshes every derived view from the tracker.
func (u *UI) loadTasks() error {
	u.tasks = u.tracker.FilteredTasks(u.filter)
	u.completed = u.tracker.VisibleCompletedTasks()
	u.hasMore = u.tracker.HasMoreCompleted()
	u.remaining = u.tracker.RemainingCompleted()
	u.agenda = busyDays(u.tracker.Agenda())
	u.stats = u.tracker.Stats()

	months := u.tracker.Months()
	u.months = len(months)
	u.monthOffset = min(max(u.monthOffset, 0), len(months)-1)
	u.grid = nil
	if len(months) > 0 {
		u.grid = u.tracker.MonthGrid(months[u.monthOffset])
	}

	u.toast = nil
	if toast, ok := u.tracker.PendingUndo(); ok {
		u.toast = &toast
	}

	if u.selectedTasks >= len(u.tasks) {
		u.selectedTasks = max(len(u.tasks)-1, 0)
	}
	if u.selectedCompleted >= len(u.completed) {
		u.selectedCompleted = max(len(u.completed)-1, 0)
	}

	return u.loadHistory()
}

func (u *UI) loadHistory() error {
	selected := u.selectedTask()
	if selected == nil || u.history == nil {
		u.entries = nil
		return nil
	}

	entries, err := u.history.ListHistory(context.Background(), selected.ID)
	if err != nil {
		return err
	}
	u.entries = entries
	return nil
}

func (u *UI) renderHeader(view *gocui.View) {
	view.Clear()
	loading := ""
	if u.tracker.Loading() {
		loading = " | loading..."
	}
	fmt.Fprintf(view, "%s\n%d active | %d due today | %d overdue | %d done%s",
		filterTabs(u.filter), u.stats.Active, u.stats.DueToday, u.stats.Overdue, u.stats.Completed, loading)
}

func (u *UI) renderFooter(view *gocui.View) {
	view.Clear()
	view.SetOrigin(0, 0)
	view.SetCursor(0, 0)

	fmt.Fprintln(view, "a add | e edit | d delete | x done | s schedule | u undo | esc dismiss | m more | f/F filter")
	fmt.Fprintln(view, "</> month | tab cycle | 1-4 panes | r reload | ? help | q quit")
	if u.toast != nil {
		fmt.Fprintf(view, "%s (u to undo)\n", u.toast.Message)
	}
	if u.status != "" {
		fmt.Fprint(view, u.status)
	}
}

func (u *UI) renderTaskList(view *gocui.View, tasks []model.Task, selected int, focused bool) {
	view.Clear()
	loc := u.tracker.Calendar().Location
	if len(tasks) == 0 {
		fmt.Fprintln(view, "  No tasks")
		return
	}
	for i, task := range tasks {
		prefix := " "
		if i == selected {
			if focused {
				prefix = ">"
			} else {
				prefix = "*"
			}
		}
		fmt.Fprintf(view, "%s %s\n", prefix, formatTaskSummary(task, loc))
	}
	if focused {
		view.SetCursor(0, min(selected, len(tasks)-1))
	}
}

func (u *UI) renderCompleted(view *gocui.View) {
	u.renderTaskList(view, u.completed, u.selectedCompleted, u.focus == viewCompleted)
	if u.hasMore {
		fmt.Fprintf(view, "  m: load %d more\n", u.remaining)
	}
}

func (u *UI) renderCalendar(view *gocui.View) {
	view.Clear()
	if len(u.grid) == 0 {
		return
	}
	months := u.tracker.Months()
	month := months[min(u.monthOffset, len(months)-1)]
	fmt.Fprint(view, strings.Join(calendarLines(u.grid, month, u.tracker.Calendar().FirstWeekday), "\n"))
}

func (u *UI) renderAgenda(view *gocui.View) {
	view.Clear()
	fmt.Fprint(view, strings.Join(agendaLines(u.agenda, u.tracker.Calendar(), u.tracker.Now()), "\n"))
}

func (u *UI) renderDetail(view *gocui.View) {
	view.Clear()
	selected := u.selectedTask()
	if selected == nil {
		fmt.Fprint(view, "No task selected")
		return
	}

	loc := u.tracker.Calendar().Location
	location := "n/a"
	if selected.Location != nil {
		location = *selected.Location
	}
	lines := []string{
		selected.Name,
		fmt.Sprintf("Priority: %s", selected.Priority.Label()),
		fmt.Sprintf("Due: %s", formatDue(selected.DueDate, loc)),
		fmt.Sprintf("Labels: %s", formatLabels(selected.Labels)),
		fmt.Sprintf("Location: %s", location),
	}
	if description := strings.TrimSpace(selected.Description); description != "" {
		lines = append(lines, "", description)
	}
	if len(u.entries) > 0 {
		lines = append(lines, "", "History:")
		for _, entry := range u.entries {
			lines = append(lines, fmt.Sprintf("  %s | %s | %s", entry.CreatedAt.In(loc).Format(dateTimeLayout), entry.EventType, entry.Details))
		}
	}

	fmt.Fprint(view, strings.Join(lines, "\n"))
}

func (u *UI) onListClick(gui *gocui.Gui, viewName string, opts gocui.ViewMouseBindingOpts) error {
	if u.inputActive() {
		return nil
	}
	view, err := gui.View(viewName)
	if err != nil {
		return nil
	}

	_, y0, _, _ := view.Dimensions()
	_, oy := view.Origin()
	row := max(opts.Y-y0-1+oy, 0)

	switch viewName {
	case viewTasks:
		u.selectedTasks = min(row, len(u.tasks)-1)
		return u.setFocus(gui, viewTasks)
	case viewCompleted:
		u.selectedCompleted = min(row, len(u.completed)-1)
		return u.setFocus(gui, viewCompleted)
	default:
		return nil
	}
}

func (u *UI) bindMouseScroll(gui *gocui.Gui) error {
	views := []string{viewTasks, viewCompleted, viewAgenda, viewDetail}
	for _, name := range views {
		if err := gui.SetKeybinding(name, gocui.MouseWheelUp, gocui.ModNone, u.scrollUp); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, gocui.MouseWheelDown, gocui.ModNone, u.scrollDown); err != nil {
			return err
		}
	}
	return nil
}

func (u *UI) scrollUp(gui *gocui.Gui, view *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if view == nil {
		view = gui.CurrentView()
	}
	if view == nil {
		return nil
	}
	view.ScrollUp(1)
	return nil
}

func (u *UI) scrollDown(gui *gocui.Gui, view *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if view == nil {
		view = gui.CurrentView()
	}
	if view == nil {
		return nil
	}
	view.ScrollDown(1)
	return nil
}

func (u *UI) selectedTask() *model.Task {
	switch u.focus {
	case viewCompleted:
		if u.selectedCompleted >= 0 && u.selectedCompleted < len(u.completed) {
			return &u.completed[u.selectedCompleted]
		}
	default:
		if u.selectedTasks >= 0 && u.selectedTasks < len(u.tasks) {
			return &u.tasks[u.selectedTasks]
		}
	}
	return nil
}

func (u *UI) switchFocus(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}

	switch u.focus {
	case viewTasks:
		u.focus = viewCompleted
	case viewCompleted:
		u.focus = viewCalendar
	case viewCalendar:
		u.focus = viewAgenda
	default:
		u.focus = viewTasks
	}
	_, _ = gui.SetCurrentView(u.focus)
	return u.loadHistory()
}

func (u *UI) focusTasks(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewTasks)
}

func (u *UI) focusCompleted(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewCompleted)
}

func (u *UI) focusCalendar(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewCalendar)
}

func (u *UI) focusAgenda(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewAgenda)
}

func (u *UI) setFocus(gui *gocui.Gui, name string) error {
	if u.inputActive() {
		return nil
	}
	u.focus = name
	_, _ = gui.SetCurrentView(name)
	return u.loadHistory()
}

func (u *UI) moveDown(gui *gocui.Gui, view *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.focus {
	case viewTasks:
		if u.selectedTasks < len(u.tasks)-1 {
			u.selectedTasks++
			return u.loadHistory()
		}
	case viewCompleted:
		if u.selectedCompleted < len(u.completed)-1 {
			u.selectedCompleted++
			return u.loadHistory()
		}
	case viewCalendar:
		return u.nextMonth(gui, view)
	case viewAgenda:
		if view != nil {
			view.ScrollDown(1)
		}
	}
	return nil
}

func (u *UI) moveUp(gui *gocui.Gui, view *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.focus {
	case viewTasks:
		if u.selectedTasks > 0 {
			u.selectedTasks--
			return u.loadHistory()
		}
	case viewCompleted:
		if u.selectedCompleted > 0 {
			u.selectedCompleted--
			return u.loadHistory()
		}
	case viewCalendar:
		return u.prevMonth(gui, view)
	case viewAgenda:
		if view != nil {
			view.ScrollUp(1)
		}
	}
	return nil
}

func (u *UI) reload(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.status = ""
	return u.loadTasks()
}

func (u *UI) nextFilter(gui *gocui.Gui, _ *gocui.View) error {
	return u.shiftFilter(1)
}

func (u *UI) prevFilter(gui *gocui.Gui, _ *gocui.View) error {
	return u.shiftFilter(-1)
}

func (u *UI) shiftFilter(delta int) error {
	if u.inputActive() {
		return nil
	}
	u.filter = shiftFilter(u.filter, delta)
	u.selectedTasks = 0
	return u.loadTasks()
}

func (u *UI) nextMonth(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.monthOffset >= u.months-1 {
		return nil
	}
	u.monthOffset++
	return u.loadTasks()
}

func (u *UI) prevMonth(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.monthOffset == 0 {
		return nil
	}
	u.monthOffset--
	return u.loadTasks()
}

func (u *UI) toggleHelp(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() && !u.helpActive {
		return nil
	}
	u.helpActive = !u.helpActive
	return nil
}

func (u *UI) closeHelp(gui *gocui.Gui, _ *gocui.View) error {
	u.helpActive = false
	_ = gui.DeleteView(viewHelp)
	_, _ = gui.SetCurrentView(u.focus)
	return nil
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := 20
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2
	x1 := x0 + width
	y1 := y0 + height

	view, err := gui.SetView(viewHelp, x0, y0, x1, y1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Help"
		view.Wrap = true
	}
	view.Clear()
	fmt.Fprint(view, helpText())
	_, _ = gui.SetCurrentView(viewHelp)
	return nil
}

func (u *UI) openReschedule(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.focus != viewTasks {
		return nil
	}
	if u.selectedTask() == nil {
		return nil
	}
	u.rescheduleActive = true
	u.selectedQuick = 0
	return nil
}

func (u *UI) showReschedule(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(36, maxX/4)
	height := len(tracker.QuickOptions) + 1
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2
	x1 := x0 + width
	y1 := y0 + height

	view, err := gui.SetView(viewReschedule, x0, y0, x1, y1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Schedule for"
	}
	u.renderReschedule(view)
	_, _ = gui.SetCurrentView(viewReschedule)
	return nil
}

func (u *UI) renderReschedule(view *gocui.View) {
	view.Clear()
	cal := u.tracker.Calendar()
	now := u.tracker.Now()
	for index, option := range tracker.QuickOptions {
		prefix := " "
		if index == u.selectedQuick {
			prefix = ">"
		}
		target := tracker.QuickDate(cal, now, option)
		fmt.Fprintf(view, "%s %-13s %s\n", prefix, option.Label(), target.In(cal.Location).Format("Mon Jan 2"))
	}
}

func (u *UI) nextQuickOption(gui *gocui.Gui, _ *gocui.View) error {
	if u.selectedQuick < len(tracker.QuickOptions)-1 {
		u.selectedQuick++
	}
	return nil
}

func (u *UI) prevQuickOption(gui *gocui.Gui, _ *gocui.View) error {
	if u.selectedQuick > 0 {
		u.selectedQuick--
	}
	return nil
}

func (u *UI) submitReschedule(gui *gocui.Gui, _ *gocui.View) error {
	if !u.rescheduleActive {
		return nil
	}
	u.rescheduleActive = false
	if gui != nil {
		_ = gui.DeleteView(viewReschedule)
		_, _ = gui.SetCurrentView(u.focus)
	}

	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	option := tracker.QuickOptions[u.selectedQuick]
	target := tracker.QuickDate(u.tracker.Calendar(), u.tracker.Now(), option)
	if _, ok := u.tracker.RescheduleTask(context.Background(), selected.ID, target); !ok {
		u.status = fmt.Sprintf("%s is already scheduled for %s", selected.Name, option.Label())
		return u.loadTasks()
	}
	u.status = ""
	return u.loadTasks()
}

func (u *UI) cancelReschedule(gui *gocui.Gui, _ *gocui.View) error {
	u.rescheduleActive = false
	_ = gui.DeleteView(viewReschedule)
	_, _ = gui.SetCurrentView(u.focus)
	return nil
}

func (u *UI) undoReschedule(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if !u.tracker.UndoLastReschedule(context.Background()) {
		u.status = "Nothing to undo"
		return u.loadTasks()
	}
	u.status = "Reschedule undone"
	return u.loadTasks()
}

func (u *UI) dismissUndo(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.tracker.DismissUndo()
	u.status = ""
	return u.loadTasks()
}

func (u *UI) loadMoreCompleted(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || !u.hasMore {
		return nil
	}
	u.tracker.LoadMoreCompleted()
	return u.loadTasks()
}

func (u *UI) addTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.form = &formState{fields: buildFormFields(nil, u.tracker.Calendar().Location)}
	return nil
}

func (u *UI) editTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	u.form = &formState{taskID: selected.ID, fields: buildFormFields(selected, u.tracker.Calendar().Location)}
	return nil
}

func (u *UI) showForm(gui *gocui.Gui) error {
	if u.form == nil {
		return nil
	}

	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := min(12, max(8, maxY/2))
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2
	x1 := x0 + width
	y1 := y0 + height

	view, err := gui.SetView(viewForm, x0, y0, x1, y1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Wrap = true
	}
	if u.form.taskID != uuid.Nil {
		view.Title = "Edit Task"
	} else {
		view.Title = "New Task"
	}
	view.Editable = true
	view.KeybindOnEdit = true
	view.Editor = u.formEditor
	u.renderForm(view)
	_, _ = gui.SetCurrentView(viewForm)
	return nil
}

func (u *UI) submitFormNow(gui *gocui.Gui, _ *gocui.View) error {
	if u.form == nil {
		return nil
	}

	loc := u.tracker.Calendar().Location
	input, err := parseFormFields(u.form.fields, loc)
	if err != nil {
		u.status = err.Error()
		return nil
	}

	ctx := context.Background()
	if u.form.taskID == uuid.Nil {
		u.tracker.AddTask(ctx, input.apply(model.NewTask(input.Name), loc))
	} else {
		existing, ok := u.tracker.Task(u.form.taskID)
		if !ok || !u.tracker.UpdateTask(ctx, input.apply(existing, loc)) {
			u.status = "task no longer exists"
			return nil
		}
	}

	u.form = nil
	u.status = ""
	if gui != nil {
		_ = gui.DeleteView(viewForm)
		_, _ = gui.SetCurrentView(u.focus)
	}
	return u.loadTasks()
}

func (u *UI) cancelForm(gui *gocui.Gui, _ *gocui.View) error {
	u.form = nil
	_ = gui.DeleteView(viewForm)
	_, _ = gui.SetCurrentView(u.focus)
	return nil
}

func (u *UI) nextFormField(gui *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index < len(u.form.fields)-1 {
		u.form.index++
	}
	u.renderForm(view)
	return nil
}

func (u *UI) prevFormField(gui *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index > 0 {
		u.form.index--
	}
	u.renderForm(view)
	return nil
}

func (u *UI) renderForm(view *gocui.View) {
	if u.form == nil || view == nil {
		return
	}
	view.Clear()
	for index, field := range u.form.fields {
		prefix := "  "
		if index == u.form.index {
			prefix = "> "
		}
		fmt.Fprintf(view, "%s%s: %s\n", prefix, field.Label, field.Value)
	}
	label := u.form.fields[u.form.index].Label + ": "
	cursorX := len([]rune(label)) + len([]rune(u.form.fields[u.form.index].Value)) + 2
	view.SetCursor(cursorX, u.form.index)
}

func (e *formEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil || ui.form == nil || view == nil {
		return false
	}
	field := &ui.form.fields[ui.form.index]

	if isPriorityField(field.Label) {
		switch key {
		case gocui.KeyArrowRight, gocui.KeySpace:
			field.Value = nextPriority(field.Value)
		case gocui.KeyArrowLeft:
			field.Value = prevPriority(field.Value)
		}
		ui.renderForm(view)
		return true
	}

	switch key {
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		runes := []rune(field.Value)
		if len(runes) > 0 {
			field.Value = string(runes[:len(runes)-1])
		}
	case gocui.KeySpace:
		field.Value += " "
	case gocui.KeyCtrlU:
		field.Value = ""
	}

	if ch != 0 && ch != '\n' && ch != '\r' && mod == 0 {
		field.Value += string(ch)
	}

	ui.renderForm(view)
	return true
}

func (u *UI) deleteTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	if !u.tracker.DeleteTask(context.Background(), selected.ID) {
		u.status = "task no longer exists"
	} else {
		u.status = ""
	}
	return u.loadTasks()
}

func (u *UI) toggleDone(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	if !u.tracker.ToggleCompletion(context.Background(), selected.ID) {
		u.status = "task no longer exists"
	} else {
		u.status = ""
	}
	return u.loadTasks()
}

func (u *UI) inputActive() bool {
	return u.form != nil || u.helpActive || u.rescheduleActive
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	return gocui.ErrQuit
}

func helpText() string {
	return strings.Join([]string{
		"Navigation:",
		"  Tab cycle panes (tasks/completed/calendar/agenda)",
		"  1 Tasks | 2 Completed | 3 Calendar | 4 Agenda",
		"  j/k or arrows move selection (month in Calendar, scroll in Agenda)",
		"  < / > previous/next month",
		"  f / F next/previous filter",
		"",
		"Actions:",
		"  a add task | e edit task | d delete task | x toggle done",
		"  s schedule (Tasks pane): today, tomorrow, this weekend, next week",
		"  u undo last schedule | esc dismiss undo",
		"  m load more completed tasks",
		"",
		"Form:",
		"  tab/arrows next field | enter save | esc cancel",
		"  space/left/right cycle priority",
		"",
		"Other:",
		"  r reload | ? help | esc/q close help | q quit",
	}, "\n")
}

func applyViewStyle(view *gocui.View, focused bool, highlight bool) {
	view.Frame = true
	view.Highlight = focused && highlight
	view.HighlightInactive = false
	view.SelBgColor = gocui.ColorBlue
	view.SelFgColor = gocui.ColorBlack
	view.InactiveViewSelBgColor = gocui.ColorDefault
	if focused {
		view.FrameColor = gocui.ColorCyan
		view.TitleColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
