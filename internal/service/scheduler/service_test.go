package scheduler

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careling/booking-api/internal/model"
	"github.com/careling/booking-api/pkg/clock"
	apperrors "github.com/careling/booking-api/pkg/errors"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", nil)
	}
	return u, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user", nil)
}

func (r *fakeUserRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := r.users[id]
	return ok, nil
}

type fakeApptRepo struct {
	users        *fakeUserRepo
	appointments map[uuid.UUID]*model.Appointment
}

func newFakeApptRepo(users *fakeUserRepo) *fakeApptRepo {
	return &fakeApptRepo{users: users, appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (r *fakeApptRepo) Create(_ context.Context, appt *model.Appointment) error {
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	clone := *appt
	r.appointments[appt.ID] = &clone
	return nil
}

func (r *fakeApptRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	appt, ok := r.appointments[id]
	if !ok {
		return nil, nil
	}
	clone := *appt
	return &clone, nil
}

func (r *fakeApptRepo) GetDetail(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error) {
	appt, ok := r.appointments[id]
	if !ok {
		return nil, nil
	}
	detail := &model.AppointmentDetail{Appointment: *appt}
	if pat, ok := r.users.users[appt.PatientID]; ok {
		detail.PatientUsername = pat.Username
	}
	if pro, ok := r.users.users[appt.ProviderID]; ok {
		detail.ProviderUsername = pro.Username
	}
	return detail, nil
}

func (r *fakeApptRepo) ListForUser(ctx context.Context, userID uuid.UUID, role model.Role, filters *model.AppointmentFilters) ([]*model.AppointmentDetail, error) {
	var result []*model.AppointmentDetail
	for id, appt := range r.appointments {
		if role == model.RolePatient && appt.PatientID != userID {
			continue
		}
		if role == model.RoleProvider && appt.ProviderID != userID {
			continue
		}
		if filters != nil {
			if filters.Status != nil && appt.Status != *filters.Status {
				continue
			}
			if filters.StartDate != nil && dateOf(appt.StartTime).Before(dateOf(*filters.StartDate)) {
				continue
			}
			if filters.EndDate != nil && dateOf(appt.StartTime).After(dateOf(*filters.EndDate)) {
				continue
			}
		}
		detail, _ := r.GetDetail(ctx, id)
		result = append(result, detail)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartTime.Before(result[j].StartTime)
	})
	return result, nil
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (r *fakeApptRepo) ApplyTransition(_ context.Context, id uuid.UUID, t *model.StatusTransition) (bool, error) {
	appt, ok := r.appointments[id]
	if !ok {
		return false, nil
	}
	appt.Status = t.Status
	appt.UpdatedAt = t.UpdatedAt
	if t.Note != nil {
		target := &appt.NotesByPatient
		if t.Role == model.RoleProvider {
			target = &appt.NotesByProvider
		}
		if *target == nil {
			*target = t.Note
		} else {
			joined := **target + "\n" + *t.Note
			*target = &joined
		}
	}
	if t.VideoRoomName != nil {
		appt.VideoRoomName = t.VideoRoomName
	}
	return true, nil
}

func (r *fakeApptRepo) FindOverlapping(_ context.Context, providerID uuid.UUID, start, end time.Time) ([]*model.Appointment, error) {
	var result []*model.Appointment
	for _, appt := range r.appointments {
		if appt.ProviderID != providerID {
			continue
		}
		if appt.Status == model.AppointmentStatusCancelledByPatient ||
			appt.Status == model.AppointmentStatusCancelledByProvider {
			continue
		}
		if appt.StartTime.Before(end) && appt.EndTime.After(start) {
			clone := *appt
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (r *fakeApptRepo) FindDueReminders(context.Context, time.Time, time.Time, time.Time) ([]*model.ReminderCandidate, error) {
	return nil, nil
}

func (r *fakeApptRepo) MarkReminderSent(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	appt, ok := r.appointments[id]
	if !ok {
		return false, nil
	}
	appt.LastReminderSentAt = &at
	return true, nil
}

func strPtr(s string) *string { return &s }

type fixture struct {
	svc      *Service
	repo     *fakeApptRepo
	clock    *clock.Fake
	patient  *model.User
	provider *model.User
	other    *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	patient := &model.User{ID: uuid.New(), Username: "pat_charlie", Email: strPtr("charlie@patient.example")}
	provider := &model.User{ID: uuid.New(), Username: "prov_alice"}
	other := &model.User{ID: uuid.New(), Username: "prov_bob"}

	users := newFakeUserRepo(patient, provider, other)
	repo := newFakeApptRepo(users)
	clk := clock.NewFake(time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC))

	return &fixture{
		svc:      NewService(repo, users, clk),
		repo:     repo,
		clock:    clk,
		patient:  patient,
		provider: provider,
		other:    other,
	}
}

func (f *fixture) request(t *testing.T, start, end time.Time) uuid.UUID {
	t.Helper()
	id, err := f.svc.RequestAppointment(context.Background(), &model.RequestAppointmentRequest{
		PatientID:  f.patient.ID,
		ProviderID: f.provider.ID,
		StartTime:  start,
		EndTime:    end,
		Reason:     strPtr("Annual Checkup"),
	})
	require.NoError(t, err)
	return id
}

func TestRequestAppointmentInvalidRange(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 5, 1, 11, 0, 0, 0, time.UTC)

	_, err := f.svc.RequestAppointment(context.Background(), &model.RequestAppointmentRequest{
		PatientID:  f.patient.ID,
		ProviderID: f.provider.ID,
		StartTime:  start,
		EndTime:    start.Add(-time.Hour),
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidRange))

	// Zero-length intervals are rejected too.
	_, err = f.svc.RequestAppointment(context.Background(), &model.RequestAppointmentRequest{
		PatientID:  f.patient.ID,
		ProviderID: f.provider.ID,
		StartTime:  start,
		EndTime:    start,
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidRange))
}

func TestRequestAppointmentUnknownUser(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	_, err := f.svc.RequestAppointment(context.Background(), &model.RequestAppointmentRequest{
		PatientID:  uuid.New(),
		ProviderID: f.provider.ID,
		StartTime:  start,
		EndTime:    start.Add(30 * time.Minute),
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrUnknownUser))

	_, err = f.svc.RequestAppointment(context.Background(), &model.RequestAppointmentRequest{
		PatientID:  f.patient.ID,
		ProviderID: uuid.New(),
		StartTime:  start,
		EndTime:    start.Add(30 * time.Minute),
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrUnknownUser))
}

func TestRequestAppointmentStartsPending(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	id := f.request(t, start, start.Add(30*time.Minute))

	detail, err := f.svc.GetAppointment(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, model.AppointmentStatusPending, detail.Status)
	assert.Equal(t, "pat_charlie", detail.PatientUsername)
	assert.Equal(t, "prov_alice", detail.ProviderUsername)
	assert.True(t, detail.EndTime.After(detail.StartTime))
}

func TestTransitionStatusMissingAppointment(t *testing.T) {
	f := newFixture(t)

	ok, err := f.svc.TransitionStatus(context.Background(), uuid.New(), model.AppointmentStatusConfirmed, f.provider.ID, model.RoleProvider, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTransitionStatusPatientCanNeverConfirm(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	id := f.request(t, start, start.Add(30*time.Minute))

	// Even the appointment's own patient cannot reach confirmed.
	ok, err := f.svc.TransitionStatus(context.Background(), id, model.AppointmentStatusConfirmed, f.patient.ID, model.RolePatient, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	detail, err := f.svc.GetAppointment(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusPending, detail.Status)
}

func TestTransitionStatusForeignProviderFails(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	id := f.request(t, start, start.Add(30*time.Minute))

	for _, status := range []model.AppointmentStatus{
		model.AppointmentStatusConfirmed,
		model.AppointmentStatusCancelledByProvider,
		model.AppointmentStatusCompleted,
		model.AppointmentStatusRescheduledByProvider,
	} {
		ok, err := f.svc.TransitionStatus(context.Background(), id, status, f.other.ID, model.RoleProvider, nil)
		require.NoError(t, err)
		assert.False(t, ok, "provider %s is not the appointment's provider, %s must fail", f.other.Username, status)
	}

	detail, err := f.svc.GetAppointment(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusPending, detail.Status)
}

func TestTransitionStatusConfirmSetsVideoRoom(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	id := f.request(t, start, start.Add(30*time.Minute))

	ok, err := f.svc.TransitionStatus(context.Background(), id, model.AppointmentStatusConfirmed, f.provider.ID, model.RoleProvider, strPtr("Confirmed by Dr. Alice."))
	require.NoError(t, err)
	assert.True(t, ok)

	detail, err := f.svc.GetAppointment(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, detail.Status)
	require.NotNil(t, detail.VideoRoomName)
	assert.Contains(t, *detail.VideoRoomName, id.String())
	require.NotNil(t, detail.NotesByProvider)
	assert.Contains(t, *detail.NotesByProvider, "Confirmed by Dr. Alice.")
	assert.Contains(t, *detail.NotesByProvider, string(model.AppointmentStatusConfirmed))
}

// A second confirm passes the authorization table again and regenerates the
// video room name. Documents current behavior; whether replacing the room of
// an already-confirmed appointment is desirable remains open.
func TestTransitionStatusReconfirmRegeneratesVideoRoom(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	id := f.request(t, start, start.Add(30*time.Minute))

	ok, err := f.svc.TransitionStatus(context.Background(), id, model.AppointmentStatusConfirmed, f.provider.ID, model.RoleProvider, nil)
	require.NoError(t, err)
	require.True(t, ok)
	first, err := f.svc.GetAppointment(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, first.VideoRoomName)

	f.clock.Advance(time.Second)

	ok, err = f.svc.TransitionStatus(context.Background(), id, model.AppointmentStatusConfirmed, f.provider.ID, model.RoleProvider, nil)
	require.NoError(t, err)
	require.True(t, ok)
	second, err := f.svc.GetAppointment(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, second.VideoRoomName)

	assert.NotEqual(t, *first.VideoRoomName, *second.VideoRoomName)
}

func TestTransitionStatusAppendsNotes(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	id := f.request(t, start, start.Add(30*time.Minute))

	ok, err := f.svc.TransitionStatus(context.Background(), id, model.AppointmentStatusCancelledByPatient, f.patient.ID, model.RolePatient, strPtr("No longer needed."))
	require.NoError(t, err)
	require.True(t, ok)

	// A later note from the same side lands below the first one.
	f.clock.Advance(time.Minute)
	detailBefore, err := f.svc.GetAppointment(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, detailBefore.NotesByPatient)
	firstNotes := *detailBefore.NotesByPatient

	ok, err = f.svc.TransitionStatus(context.Background(), id, model.AppointmentStatusCancelledByPatient, f.patient.ID, model.RolePatient, strPtr("Second thoughts."))
	require.NoError(t, err)
	require.True(t, ok)

	detail, err := f.svc.GetAppointment(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, detail.NotesByPatient)
	assert.True(t, strings.HasPrefix(*detail.NotesByPatient, firstNotes), "earlier notes are never overwritten")
	assert.Contains(t, *detail.NotesByPatient, "Second thoughts.")
}

func TestTransitionsNeverAlterTimes(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	id := f.request(t, start, end)

	_, err := f.svc.TransitionStatus(context.Background(), id, model.AppointmentStatusConfirmed, f.provider.ID, model.RoleProvider, nil)
	require.NoError(t, err)
	_, err = f.svc.TransitionStatus(context.Background(), id, model.AppointmentStatusCancelledByProvider, f.provider.ID, model.RoleProvider, nil)
	require.NoError(t, err)

	detail, err := f.svc.GetAppointment(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, detail.StartTime.Equal(start))
	assert.True(t, detail.EndTime.Equal(end))
	assert.True(t, detail.EndTime.After(detail.StartTime))
}

func TestListAppointmentsFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	day1 := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	id1 := f.request(t, day1, day1.Add(30*time.Minute))
	id2 := f.request(t, day2, day2.Add(30*time.Minute))

	_, err := f.svc.TransitionStatus(ctx, id1, model.AppointmentStatusConfirmed, f.provider.ID, model.RoleProvider, nil)
	require.NoError(t, err)

	all, err := f.svc.ListAppointments(ctx, f.provider.ID, model.RoleProvider, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, id1, all[0].ID, "ordered by start time ascending")
	assert.Equal(t, id2, all[1].ID)

	confirmed := model.AppointmentStatusConfirmed
	filtered, err := f.svc.ListAppointments(ctx, f.provider.ID, model.RoleProvider, &model.AppointmentFilters{Status: &confirmed})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, id1, filtered[0].ID)

	// Date bounds are inclusive and compare the date component only.
	from := time.Date(2026, 5, 2, 23, 0, 0, 0, time.UTC)
	byDate, err := f.svc.ListAppointments(ctx, f.patient.ID, model.RolePatient, &model.AppointmentFilters{StartDate: &from, EndDate: &from})
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, id2, byDate[0].ID)
}

func TestCheckConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	id := f.request(t, start, start.Add(30*time.Minute))

	conflict, err := f.svc.CheckConflict(ctx, f.provider.ID, start.Add(15*time.Minute), start.Add(45*time.Minute))
	require.NoError(t, err)
	assert.True(t, conflict)

	// Half-open: an appointment ending exactly at the window start is clear.
	conflict, err = f.svc.CheckConflict(ctx, f.provider.ID, start.Add(30*time.Minute), start.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, conflict)

	// Cancelled appointments no longer conflict.
	_, err = f.svc.TransitionStatus(ctx, id, model.AppointmentStatusCancelledByPatient, f.patient.ID, model.RolePatient, nil)
	require.NoError(t, err)
	conflict, err = f.svc.CheckConflict(ctx, f.provider.ID, start, start.Add(30*time.Minute))
	require.NoError(t, err)
	assert.False(t, conflict)
}

// Full lifecycle: provider publishes availability, patient books inside it,
// provider confirms, patient cancels with a reason.
func TestBookingLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	id := f.request(t, start, start.Add(30*time.Minute))

	ok, err := f.svc.TransitionStatus(ctx, id, model.AppointmentStatusConfirmed, f.provider.ID, model.RoleProvider, nil)
	require.NoError(t, err)
	require.True(t, ok)

	detail, err := f.svc.GetAppointment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, detail.Status)
	assert.NotNil(t, detail.VideoRoomName)

	ok, err = f.svc.TransitionStatus(ctx, id, model.AppointmentStatusCancelledByPatient, f.patient.ID, model.RolePatient, strPtr("Schedule conflict."))
	require.NoError(t, err)
	require.True(t, ok)

	detail, err = f.svc.GetAppointment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelledByPatient, detail.Status)
	require.NotNil(t, detail.NotesByPatient)
	assert.Contains(t, *detail.NotesByPatient, "Schedule conflict.")
}
