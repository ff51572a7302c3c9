package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/cityofaustin/atd-mds-go/pkg/gqlgateway"
)

// Repo is the ScheduleRepo component (spec.md §4.4), implemented over
// GraphQLGateway, grounded on original_source/MDSSchedule.py.
type Repo struct {
	gql *gqlgateway.Client
}

// New constructs a Repo.
func New(gql *gqlgateway.Client) *Repo {
	return &Repo{gql: gql}
}

type pendingResponse struct {
	APISchedule []apiScheduleRow `json:"api_schedule"`
}

type apiScheduleRow struct {
	ScheduleID int64  `json:"schedule_id"`
	ProviderID int64  `json:"provider_id"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Day        int    `json:"day"`
	Hour       int    `json:"hour"`
	StatusID   int    `json:"status_id"`
	Payload    string `json:"payload"`
	Message    string `json:"message"`
	Provider   struct {
		ProviderName string `json:"provider_name"`
	} `json:"provider"`
}

// QueryPending returns blocks for providerName in (timeMin, timeMax],
// ordered ascending by date, optionally filtered by statusID/statusOp.
// statusCheck=false omits the status predicate entirely, matching
// original_source/MDSSchedule.py's %STATUS_CHECK% template toggle.
func (r *Repo) QueryPending(ctx context.Context, providerName string, timeMin, timeMax time.Time, statusID Status, statusOp StatusOperator, statusCheck bool) ([]Block, error) {
	statusClause := ""
	if statusCheck {
		statusClause = fmt.Sprintf("status_id: {%s: %s},", statusOp, gqlgateway.Value(int(statusID)))
	}

	query := fmt.Sprintf(`
		query fetchPendingSchedules {
			api_schedule(
				where: {
					provider: {provider_name: {_eq: %s}},
					%s
					date: {_gt: %s}
					_and: {
						date: {_lte: %s}
					}
				}, order_by: {date: asc}
			) {
				provider_id
				schedule_id
				year
				month
				day
				hour
				status_id
				provider { provider_name }
			}
		}
	`,
		gqlgateway.Value(providerName),
		statusClause,
		gqlgateway.Value(formatScheduleDate(timeMin)),
		gqlgateway.Value(formatScheduleDate(timeMax)),
	)

	var resp pendingResponse
	if err := r.gql.Execute(ctx, query, &resp); err != nil {
		return nil, fmt.Errorf("schedule: query_pending: %w", err)
	}

	blocks := make([]Block, 0, len(resp.APISchedule))
	for _, row := range resp.APISchedule {
		blocks = append(blocks, Block{
			ScheduleID:   row.ScheduleID,
			ProviderID:   row.ProviderID,
			ProviderName: row.Provider.ProviderName,
			Year:         row.Year,
			Month:        row.Month,
			Day:          row.Day,
			Hour:         row.Hour,
			StatusID:     Status(row.StatusID),
			Payload:      row.Payload,
			Message:      row.Message,
		})
	}
	return blocks, nil
}

// GetByID fetches one block by schedule_id.
func (r *Repo) GetByID(ctx context.Context, scheduleID int64) (*Block, error) {
	query := fmt.Sprintf(`
		query getScheduleById {
			api_schedule(where: { schedule_id: { _eq: %s } }) {
				schedule_id
				status_id
				year
				month
				day
				hour
				payload
				message
				provider { provider_name }
			}
		}
	`, gqlgateway.Value(scheduleID))

	var resp pendingResponse
	if err := r.gql.Execute(ctx, query, &resp); err != nil {
		return nil, fmt.Errorf("schedule: get_by_id: %w", err)
	}
	if len(resp.APISchedule) == 0 {
		return nil, fmt.Errorf("schedule: no block with schedule_id=%d", scheduleID)
	}
	row := resp.APISchedule[0]
	return &Block{
		ScheduleID:   row.ScheduleID,
		ProviderName: row.Provider.ProviderName,
		Year:         row.Year,
		Month:        row.Month,
		Day:          row.Day,
		Hour:         row.Hour,
		StatusID:     Status(row.StatusID),
		Payload:      row.Payload,
		Message:      row.Message,
	}, nil
}

type updateResponse struct {
	UpdateAPISchedule struct {
		AffectedRows int `json:"affected_rows"`
	} `json:"update_api_schedule"`
}

// UpdateStatus sets status_id and any extra fields atomically in one
// mutation, returning affected row count. extraFields are rendered via
// gqlgateway.RenderFields' quoting rules — never naive string
// interpolation (spec.md §9).
func (r *Repo) UpdateStatus(ctx context.Context, scheduleID int64, newStatusID Status, extraFields []gqlgateway.Field) (int, error) {
	fields := append([]gqlgateway.Field{{Name: "status_id", Value: int(newStatusID)}}, extraFields...)

	query := fmt.Sprintf(`
		mutation mutationUpdateScheduleStatus {
			update_api_schedule(
				where: { schedule_id: { _eq: %s } },
				_set: {
					%s
				}
			) { affected_rows }
		}
	`, gqlgateway.Value(scheduleID), gqlgateway.RenderFields(fields))

	var resp updateResponse
	if err := r.gql.Execute(ctx, query, &resp); err != nil {
		return 0, fmt.Errorf("schedule: update_status: %w", err)
	}
	return resp.UpdateAPISchedule.AffectedRows, nil
}

func formatScheduleDate(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:00:00", t.Year(), t.Month(), t.Day(), t.Hour())
}
