package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"github.com/Shrikant133/ElevAIte/internal/model"
	"github.com/Shrikant133/ElevAIte/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateUser inserts a new user and their skills, populating ID and CreatedAt.
func (s *SQLite) CreateUser(ctx context.Context, u *model.User) error {
	now := time.Now().UTC().Format(timeLayout)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (email, full_name, experience, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		u.Email, u.FullName, u.Experience, boolToInt(u.IsActive), now,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	for _, skill := range u.Skills {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO user_skills (user_id, skill) VALUES (?, ?)`, id, skill,
		); err != nil {
			return fmt.Errorf("insert skill: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	u.ID = id
	u.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// GetUser returns a single user with their skills loaded.
func (s *SQLite) GetUser(ctx context.Context, id int64) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, experience, is_active, created_at FROM users WHERE id = ?`, id,
	)
	var u model.User
	var isActive int
	var created string
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Experience, &isActive, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.IsActive = isActive == 1
	u.CreatedAt, _ = time.Parse(timeLayout, created)

	rows, err := s.db.QueryContext(ctx,
		`SELECT skill FROM user_skills WHERE user_id = ? ORDER BY skill`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("query skills: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var skill string
		if err := rows.Scan(&skill); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		u.Skills = append(u.Skills, skill)
	}
	return &u, rows.Err()
}

// ListActiveUserIDs returns the IDs of all active users.
func (s *SQLite) ListActiveUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query active users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateRule inserts a new rule and populates its ID and CreatedAt.
func (s *SQLite) CreateRule(ctx context.Context, r *model.Rule) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO rules (user_id, name, trigger_kind, condition_json, action_kind, action_json, enabled, run_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.UserID, r.Name, string(r.Trigger), r.ConditionJSON, string(r.Action), r.ActionJSON,
		boolToInt(r.Enabled), r.RunCount, now,
	)
	if err != nil {
		return fmt.Errorf("insert rule: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	r.ID = id
	r.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// GetRule returns a single rule by its ID.
func (s *SQLite) GetRule(ctx context.Context, id int64) (*model.Rule, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, trigger_kind, condition_json, action_kind, action_json, enabled, last_run_at, run_count, created_at
		 FROM rules WHERE id = ?`, id,
	)
	r, err := scanRule(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan rule: %w", err)
	}
	return r, nil
}

// ListEnabledRules returns all enabled rules owned by the given user.
func (s *SQLite) ListEnabledRules(ctx context.Context, userID int64) ([]model.Rule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, trigger_kind, condition_json, action_kind, action_json, enabled, last_run_at, run_count, created_at
		 FROM rules WHERE user_id = ? AND enabled = 1 ORDER BY id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, *r)
	}
	return rules, rows.Err()
}

// UpdateRuleRun persists a rule's run bookkeeping after it fired.
func (s *SQLite) UpdateRuleRun(ctx context.Context, id int64, lastRunAt time.Time, runCount int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE rules SET last_run_at = ?, run_count = ? WHERE id = ?`,
		lastRunAt.UTC().Format(timeLayout), runCount, id,
	)
	if err != nil {
		return fmt.Errorf("update rule run: %w", err)
	}
	return nil
}

// CreateOrganization inserts a new organization and populates its ID.
func (s *SQLite) CreateOrganization(ctx context.Context, o *model.Organization) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO organizations (name) VALUES (?)`, o.Name)
	if err != nil {
		return fmt.Errorf("insert organization: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	o.ID = id
	return nil
}

// CreateOpportunity inserts a new opportunity and populates its ID and CreatedAt.
func (s *SQLite) CreateOpportunity(ctx context.Context, o *model.Opportunity) error {
	now := time.Now().UTC().Format(timeLayout)
	skills, err := marshalSkills(o.SkillsRequired)
	if err != nil {
		return err
	}
	var deadline *string
	if o.DeadlineAt != nil {
		v := o.DeadlineAt.UTC().Format(timeLayout)
		deadline = &v
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO opportunities (organization_id, kind, title, location, url, skills_required, description,
		                            deadline_at, salary_min, salary_max, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.Organization.ID, o.Kind, o.Title, o.Location, o.URL, skills, o.Description,
		deadline, o.SalaryMin, o.SalaryMax, string(o.Status), now,
	)
	if err != nil {
		return fmt.Errorf("insert opportunity: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	o.ID = id
	o.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

const opportunityColumns = `o.id, o.organization_id, org.name, o.kind, o.title, o.location, o.url,
	o.skills_required, o.description, o.deadline_at, o.salary_min, o.salary_max, o.status, o.created_at`

// GetOpportunity returns a single opportunity with its organization.
func (s *SQLite) GetOpportunity(ctx context.Context, id int64) (*model.Opportunity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+opportunityColumns+`
		 FROM opportunities o JOIN organizations org ON org.id = o.organization_id
		 WHERE o.id = ?`, id,
	)
	o, err := scanOpportunity(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan opportunity: %w", err)
	}
	return o, nil
}

// ListActiveOpportunities returns all active opportunities, excluding the
// given IDs, with their organizations loaded.
func (s *SQLite) ListActiveOpportunities(ctx context.Context, excludeIDs []int64) ([]model.Opportunity, error) {
	query := `SELECT ` + opportunityColumns + `
	 FROM opportunities o JOIN organizations org ON org.id = o.organization_id
	 WHERE o.status = 'active'`
	var args []any
	if len(excludeIDs) > 0 {
		query += ` AND o.id NOT IN (?` + repeatPlaceholder(len(excludeIDs)-1) + `)`
		for _, id := range excludeIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY o.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query opportunities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var opps []model.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		opps = append(opps, *o)
	}
	return opps, rows.Err()
}

// CreateApplication inserts a new application and populates its ID and timestamps.
func (s *SQLite) CreateApplication(ctx context.Context, a *model.Application) error {
	now := time.Now().UTC().Format(timeLayout)
	created := now
	if !a.CreatedAt.IsZero() {
		created = a.CreatedAt.UTC().Format(timeLayout)
	}
	updated := now
	if !a.UpdatedAt.IsZero() {
		updated = a.UpdatedAt.UTC().Format(timeLayout)
	}
	var applied *string
	if a.AppliedAt != nil {
		v := a.AppliedAt.UTC().Format(timeLayout)
		applied = &v
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO applications (user_id, opportunity_id, status, applied_at, priority, score_fit, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.OpportunityID, string(a.Status), applied, a.Priority, a.ScoreFit, created, updated,
	)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	a.ID = id
	a.CreatedAt, _ = time.Parse(timeLayout, created)
	a.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return nil
}

const applicationColumns = `a.id, a.user_id, a.opportunity_id, o.kind, a.status, a.applied_at,
	a.priority, a.score_fit, a.created_at, a.updated_at`

// GetUserApplication returns an application owned by the given user, or
// ErrNotFound when it does not exist or belongs to someone else.
func (s *SQLite) GetUserApplication(ctx context.Context, userID, id int64) (*model.Application, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+`
		 FROM applications a JOIN opportunities o ON o.id = a.opportunity_id
		 WHERE a.id = ? AND a.user_id = ?`, id, userID,
	)
	a, err := scanApplication(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan application: %w", err)
	}
	return a, nil
}

// ListApplications returns the full application history of a user.
func (s *SQLite) ListApplications(ctx context.Context, userID int64) ([]model.Application, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+applicationColumns+`
		 FROM applications a JOIN opportunities o ON o.id = a.opportunity_id
		 WHERE a.user_id = ? ORDER BY a.id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanApplications(rows)
}

// ListStaleScoredApplications returns applications with no fit score or one
// not refreshed since cutoff.
func (s *SQLite) ListStaleScoredApplications(ctx context.Context, cutoff time.Time) ([]model.Application, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+applicationColumns+`
		 FROM applications a JOIN opportunities o ON o.id = a.opportunity_id
		 WHERE a.score_fit IS NULL OR a.updated_at < ?
		 ORDER BY a.id`,
		cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("query stale applications: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanApplications(rows)
}

// UpdateApplicationPriority sets the priority on an application owned by the
// given user. Returns ErrNotFound if no such application exists.
func (s *SQLite) UpdateApplicationPriority(ctx context.Context, userID, id int64, priority int) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`UPDATE applications SET priority = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		priority, now, id, userID,
	)
	if err != nil {
		return fmt.Errorf("update priority: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateApplicationScores persists a batch of fit scores in one transaction.
func (s *SQLite) UpdateApplicationScores(ctx context.Context, scores map[int64]float64) error {
	if len(scores) == 0 {
		return nil
	}
	now := time.Now().UTC().Format(timeLayout)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for id, score := range scores {
		if _, err := tx.ExecContext(ctx,
			`UPDATE applications SET score_fit = ?, updated_at = ? WHERE id = ?`,
			score, now, id,
		); err != nil {
			return fmt.Errorf("update score for application %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// CountNoResponse counts applications stuck in "applied" since appliedBefore.
func (s *SQLite) CountNoResponse(ctx context.Context, userID int64, appliedBefore time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM applications
		 WHERE user_id = ? AND status = 'applied' AND applied_at IS NOT NULL AND applied_at <= ?`,
		userID, appliedBefore.UTC().Format(timeLayout),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count no response: %w", err)
	}
	return count, nil
}

// CountDeadlineApproaching counts open applications whose opportunity
// deadline falls before deadlineBefore.
func (s *SQLite) CountDeadlineApproaching(ctx context.Context, userID int64, deadlineBefore time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM applications a
		 JOIN opportunities o ON o.id = a.opportunity_id
		 WHERE a.user_id = ? AND a.status IN ('to_apply', 'applied')
		   AND o.deadline_at IS NOT NULL AND o.deadline_at <= ?`,
		userID, deadlineBefore.UTC().Format(timeLayout),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count deadline approaching: %w", err)
	}
	return count, nil
}

// CountStatusUnchanged counts applications sitting in status since updatedBefore.
func (s *SQLite) CountStatusUnchanged(ctx context.Context, userID int64, status model.ApplicationStatus, updatedBefore time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM applications
		 WHERE user_id = ? AND status = ? AND updated_at <= ?`,
		userID, string(status), updatedBefore.UTC().Format(timeLayout),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count status unchanged: %w", err)
	}
	return count, nil
}

// CreateTask inserts a new task and populates its ID and CreatedAt.
func (s *SQLite) CreateTask(ctx context.Context, t *model.Task) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (user_id, title, description, due_at, priority, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Title, t.Description, t.DueAt.UTC().Format(timeLayout), t.Priority, t.Source, now,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	t.ID = id
	t.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// ListTasks returns all tasks belonging to the given user.
func (s *SQLite) ListTasks(ctx context.Context, userID int64) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, description, due_at, priority, source, created_at
		 FROM tasks WHERE user_id = ? ORDER BY id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		var due, created string
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &due, &t.Priority, &t.Source, &created); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.DueAt, _ = time.Parse(timeLayout, due)
		t.CreatedAt, _ = time.Parse(timeLayout, created)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func marshalSkills(skills []string) (string, error) {
	if len(skills) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(skills)
	if err != nil {
		return "", fmt.Errorf("marshal skills: %w", err)
	}
	return string(raw), nil
}

func unmarshalSkills(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var skills []string
	if err := json.Unmarshal([]byte(raw), &skills); err != nil {
		return nil, fmt.Errorf("unmarshal skills: %w", err)
	}
	return skills, nil
}

func repeatPlaceholder(n int) string {
	var out string
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRule(row scannable) (*model.Rule, error) {
	var r model.Rule
	var trigger, action, created string
	var enabled int
	var lastRun sql.NullString
	err := row.Scan(&r.ID, &r.UserID, &r.Name, &trigger, &r.ConditionJSON, &action, &r.ActionJSON,
		&enabled, &lastRun, &r.RunCount, &created)
	if err != nil {
		return nil, err
	}
	r.Trigger = model.TriggerKind(trigger)
	r.Action = model.ActionKind(action)
	r.Enabled = enabled == 1
	if lastRun.Valid {
		t, _ := time.Parse(timeLayout, lastRun.String)
		r.LastRunAt = &t
	}
	r.CreatedAt, _ = time.Parse(timeLayout, created)
	return &r, nil
}

func scanOpportunity(row scannable) (*model.Opportunity, error) {
	var o model.Opportunity
	var skills, status, created string
	var deadline sql.NullString
	var salaryMin, salaryMax sql.NullInt64
	err := row.Scan(&o.ID, &o.Organization.ID, &o.Organization.Name, &o.Kind, &o.Title, &o.Location, &o.URL,
		&skills, &o.Description, &deadline, &salaryMin, &salaryMax, &status, &created)
	if err != nil {
		return nil, err
	}
	o.SkillsRequired, err = unmarshalSkills(skills)
	if err != nil {
		return nil, err
	}
	if deadline.Valid {
		t, _ := time.Parse(timeLayout, deadline.String)
		o.DeadlineAt = &t
	}
	if salaryMin.Valid {
		o.SalaryMin = &salaryMin.Int64
	}
	if salaryMax.Valid {
		o.SalaryMax = &salaryMax.Int64
	}
	o.Status = model.OpportunityStatus(status)
	o.CreatedAt, _ = time.Parse(timeLayout, created)
	return &o, nil
}

func scanApplication(row scannable) (*model.Application, error) {
	var a model.Application
	var status, created, updated string
	var applied sql.NullString
	var score sql.NullFloat64
	err := row.Scan(&a.ID, &a.UserID, &a.OpportunityID, &a.OpportunityKind, &status, &applied,
		&a.Priority, &score, &created, &updated)
	if err != nil {
		return nil, err
	}
	a.Status = model.ApplicationStatus(status)
	if applied.Valid {
		t, _ := time.Parse(timeLayout, applied.String)
		a.AppliedAt = &t
	}
	if score.Valid {
		a.ScoreFit = &score.Float64
	}
	a.CreatedAt, _ = time.Parse(timeLayout, created)
	a.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return &a, nil
}

func scanApplications(rows *sql.Rows) ([]model.Application, error) {
	var apps []model.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}
