// Package store holds the PostgreSQL access for applicants and the job
// reference tables.
package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"recruitment-portal/internal/common/errors"
	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/dashboard"
	"recruitment-portal/internal/models"

	"github.com/lib/pq"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type column struct {
	name  string
	field func(a *models.Applicant) interface{}
}

// applicantColumns are the form-supplied columns in insert order.
var applicantColumns = []column{
	{"nama_lengkap", func(a *models.Applicant) interface{} { return &a.NamaLengkap }},
	{"nik", func(a *models.Applicant) interface{} { return &a.NIK }},
	{"no_hp", func(a *models.Applicant) interface{} { return &a.NoHP }},
	{"tempat_lahir", func(a *models.Applicant) interface{} { return &a.TempatLahir }},
	{"tanggal_lahir", func(a *models.Applicant) interface{} { return &a.TanggalLahir }},
	{"umur", func(a *models.Applicant) interface{} { return &a.Umur }},
	{"jenis_kelamin", func(a *models.Applicant) interface{} { return &a.JenisKelamin }},
	{"status_perkawinan", func(a *models.Applicant) interface{} { return &a.StatusPerkawinan }},
	{"agama", func(a *models.Applicant) interface{} { return &a.Agama }},
	{"nama_ayah", func(a *models.Applicant) interface{} { return &a.NamaAyah }},
	{"nama_ibu", func(a *models.Applicant) interface{} { return &a.NamaIbu }},
	{"alamat_ktp", func(a *models.Applicant) interface{} { return &a.AlamatKTP }},
	{"alamat_domisili", func(a *models.Applicant) interface{} { return &a.AlamatDomisili }},
	{"rt_rw", func(a *models.Applicant) interface{} { return &a.RTRW }},
	{"nomor_rumah", func(a *models.Applicant) interface{} { return &a.NomorRumah }},
	{"kelurahan", func(a *models.Applicant) interface{} { return &a.Kelurahan }},
	{"kecamatan", func(a *models.Applicant) interface{} { return &a.Kecamatan }},
	{"kota", func(a *models.Applicant) interface{} { return &a.Kota }},
	{"kode_pos", func(a *models.Applicant) interface{} { return &a.KodePos }},
	{"pendidikan_terakhir", func(a *models.Applicant) interface{} { return &a.PendidikanTerakhir }},
	{"nama_sekolah", func(a *models.Applicant) interface{} { return &a.NamaSekolah }},
	{"jurusan", func(a *models.Applicant) interface{} { return &a.Jurusan }},
	{"tahun_masuk", func(a *models.Applicant) interface{} { return &a.TahunMasuk }},
	{"tahun_lulus", func(a *models.Applicant) interface{} { return &a.TahunLulus }},
	{"ipk", func(a *models.Applicant) interface{} { return &a.IPK }},
	{"has_pengalaman_kerja", func(a *models.Applicant) interface{} { return &a.HasPengalamanKerja }},
	{"has_pengalaman_leasing", func(a *models.Applicant) interface{} { return &a.HasPengalamanLeasing }},
	{"nama_perusahaan", func(a *models.Applicant) interface{} { return &a.NamaPerusahaan }},
	{"posisi_terakhir", func(a *models.Applicant) interface{} { return &a.PosisiTerakhir }},
	{"lama_bekerja", func(a *models.Applicant) interface{} { return &a.LamaBekerja }},
	{"deskripsi_tugas", func(a *models.Applicant) interface{} { return &a.DeskripsiTugas }},
	{"kendaraan_pribadi", func(a *models.Applicant) interface{} { return &a.KendaraanPribadi }},
	{"ktp_asli", func(a *models.Applicant) interface{} { return &a.KTPAsli }},
	{"sim_c", func(a *models.Applicant) interface{} { return &a.SIMC }},
	{"sim_a", func(a *models.Applicant) interface{} { return &a.SIMA }},
	{"skck", func(a *models.Applicant) interface{} { return &a.SKCK }},
	{"npwp", func(a *models.Applicant) interface{} { return &a.NPWP }},
	{"riwayat_buruk_kredit", func(a *models.Applicant) interface{} { return &a.RiwayatBurukKredit }},
	{"posisi_dilamar", func(a *models.Applicant) interface{} { return &a.PosisiDilamar }},
	{"penempatan", func(a *models.Applicant) interface{} { return &a.Penempatan }},
	{"alasan_melamar", func(a *models.Applicant) interface{} { return &a.AlasanMelamar }},
	{"cv_path", func(a *models.Applicant) interface{} { return &a.CVPath }},
	{"ktp_path", func(a *models.Applicant) interface{} { return &a.KTPPath }},
}

var (
	insertApplicantSQL = buildInsertSQL()
	selectApplicantSQL = "SELECT " + strings.Join(SelectColumns(), ", ") + " FROM applicants"
)

// SelectColumns lists the columns read back for a full applicant row.
func SelectColumns() []string {
	cols := make([]string, 0, len(applicantColumns)+5)
	cols = append(cols, "id")
	for _, c := range applicantColumns {
		cols = append(cols, c.name)
	}
	return append(cols, "status", "catatan", "created_at", "updated_at")
}

func buildInsertSQL() string {
	names := make([]string, 0, len(applicantColumns)+1)
	marks := make([]string, 0, len(applicantColumns)+1)
	for i, c := range applicantColumns {
		names = append(names, c.name)
		marks = append(marks, fmt.Sprintf("$%d", i+1))
	}
	names = append(names, "created_at")
	marks = append(marks, fmt.Sprintf("$%d", len(applicantColumns)+1))
	return fmt.Sprintf("INSERT INTO applicants (%s) VALUES (%s) RETURNING id",
		strings.Join(names, ", "), strings.Join(marks, ", "))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplicant(r rowScanner) (*models.Applicant, error) {
	var (
		a       models.Applicant
		status  sql.NullString
		updated sql.NullTime
	)
	dest := make([]interface{}, 0, len(applicantColumns)+5)
	dest = append(dest, &a.ID)
	for _, c := range applicantColumns {
		dest = append(dest, c.field(&a))
	}
	dest = append(dest, &status, &a.Catatan, &a.CreatedAt, &updated)

	if err := r.Scan(dest...); err != nil {
		return nil, err
	}
	if status.Valid {
		a.Status = models.Status(status.String)
	}
	if updated.Valid {
		t := updated.Time
		a.UpdatedAt = &t
	}
	return &a, nil
}

// ApplicantStore reads and writes the applicants table.
type ApplicantStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewApplicantStore(db *sql.DB, log logger.Logger) *ApplicantStore {
	return &ApplicantStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "applicant-store"}),
	}
}

// Insert stores a new applicant with NULL status and returns its id.
func (s *ApplicantStore) Insert(ctx context.Context, a *models.Applicant) (int64, error) {
	args := make([]interface{}, 0, len(applicantColumns)+1)
	for _, c := range applicantColumns {
		args = append(args, reflect.ValueOf(c.field(a)).Elem().Interface())
	}
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	args = append(args, createdAt)

	var id int64
	if err := s.db.QueryRowContext(ctx, insertApplicantSQL, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert applicant: %w", err)
	}
	return id, nil
}

// Get loads one applicant.
func (s *ApplicantStore) Get(ctx context.Context, id int64) (*models.Applicant, error) {
	a, err := scanApplicant(s.db.QueryRowContext(ctx, selectApplicantSQL+" WHERE id = $1", id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewResourceNotFoundError("applicant", fmt.Sprintf("id %d", id))
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_applicant", err)
	}
	return a, nil
}

// GetMany loads the given applicants, newest first. Unknown ids are skipped.
func (s *ApplicantStore) GetMany(ctx context.Context, ids []int64) ([]models.Applicant, error) {
	if len(ids) == 0 {
		return []models.Applicant{}, nil
	}
	rows, err := s.db.QueryContext(ctx,
		selectApplicantSQL+" WHERE id = ANY($1) ORDER BY created_at DESC, id DESC", pq.Array(ids))
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_applicants", err)
	}
	return collect(rows)
}

func collect(rows *sql.Rows) ([]models.Applicant, error) {
	defer rows.Close()
	out := []models.Applicant{}
	for rows.Next() {
		a, err := scanApplicant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan applicant: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applicants: %w", err)
	}
	return out, nil
}

// whereBuilder accumulates numbered predicates.
type whereBuilder struct {
	clauses []string
	args    []interface{}
}

func (w *whereBuilder) next(v interface{}) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *whereBuilder) add(clause string) {
	w.clauses = append(w.clauses, clause)
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func (w *whereBuilder) status(f *dashboard.StatusFilter) {
	if f == nil {
		return
	}
	switch {
	case len(f.Statuses) > 0 && f.IncludeNull:
		w.add(fmt.Sprintf("(status = ANY(%s) OR status IS NULL)", w.next(pq.Array(f.Statuses))))
	case len(f.Statuses) > 0:
		w.add(fmt.Sprintf("status = ANY(%s)", w.next(pq.Array(f.Statuses))))
	case f.IncludeNull:
		w.add("status IS NULL")
	}
}

// likePattern escapes LIKE wildcards and wraps s for substring matching.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func listWhere(q dashboard.ListQuery) *whereBuilder {
	w := &whereBuilder{}
	w.status(&q.Filter)
	if s := strings.TrimSpace(q.Search); s != "" {
		p := w.next(likePattern(s))
		w.add(fmt.Sprintf("(nama_lengkap ILIKE %[1]s OR penempatan ILIKE %[1]s OR nik ILIKE %[1]s)", p))
	}
	if c := strings.TrimSpace(q.Client); c != "" {
		w.add("penempatan ILIKE " + w.next(likePattern(c)))
	}
	if e := strings.TrimSpace(q.Education); e != "" {
		w.add("pendidikan_terakhir = " + w.next(e))
	}
	return w
}

// List returns one page of applicants and the total number of matches.
func (s *ApplicantStore) List(ctx context.Context, q dashboard.ListQuery) ([]models.Applicant, int64, error) {
	w := listWhere(q)

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM applicants"+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count applicants: %w", err)
	}

	dir := "DESC"
	if q.SortAsc {
		dir = "ASC"
	}
	query := fmt.Sprintf("%s%s ORDER BY created_at %s, id %s LIMIT %s OFFSET %s",
		selectApplicantSQL, w.sql(), dir, dir, w.next(q.Limit), w.next(q.Offset))

	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list applicants: %w", err)
	}
	items, err := collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Count counts applicants matching f; nil counts everyone.
func (s *ApplicantStore) Count(ctx context.Context, f *dashboard.StatusFilter) (int64, error) {
	w := &whereBuilder{}
	w.status(f)
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM applicants"+w.sql(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count applicants: %w", err)
	}
	return n, nil
}

// MetricsRows returns the chart projection of every applicant.
func (s *ApplicantStore) MetricsRows(ctx context.Context) ([]models.MetricsRow, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT created_at, pendidikan_terakhir, posisi_dilamar, jenis_kelamin FROM applicants")
	if err != nil {
		return nil, fmt.Errorf("query metrics rows: %w", err)
	}
	defer rows.Close()

	out := []models.MetricsRow{}
	for rows.Next() {
		var r models.MetricsRow
		if err := rows.Scan(&r.CreatedAt, &r.PendidikanTerakhir, &r.PosisiDilamar, &r.JenisKelamin); err != nil {
			return nil, fmt.Errorf("scan metrics row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *ApplicantStore) execOne(ctx context.Context, op string, id int64, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.NewDatabaseUpdateFailedError("applicant", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewDatabaseUpdateFailedError("applicant", err)
	}
	if n == 0 {
		return errors.NewResourceNotFoundError("applicant", fmt.Sprintf("id %d", id))
	}
	s.logger.Info("applicant "+op, map[string]interface{}{"applicant_id": id})
	return nil
}

// UpdateStatus moves one applicant to status.
func (s *ApplicantStore) UpdateStatus(ctx context.Context, id int64, status models.Status) error {
	return s.execOne(ctx, "status updated", id,
		"UPDATE applicants SET status = $1, updated_at = NOW() WHERE id = $2", string(status), id)
}

// UpdateNotes replaces the operator notes.
func (s *ApplicantStore) UpdateNotes(ctx context.Context, id int64, notes string) error {
	return s.execOne(ctx, "notes updated", id,
		"UPDATE applicants SET catatan = $1, updated_at = NOW() WHERE id = $2", notes, id)
}

// UpdateFields applies the non-nil fields of edit.
func (s *ApplicantStore) UpdateFields(ctx context.Context, id int64, edit models.ApplicantEdit) error {
	w := &whereBuilder{}
	var sets []string
	set := func(col string, v *string) {
		if v != nil {
			sets = append(sets, fmt.Sprintf("%s = %s", col, w.next(*v)))
		}
	}
	set("nama_lengkap", edit.NamaLengkap)
	set("no_hp", edit.NoHP)
	set("posisi_dilamar", edit.PosisiDilamar)
	set("penempatan", edit.Penempatan)
	set("pendidikan_terakhir", edit.PendidikanTerakhir)
	set("catatan", edit.Catatan)
	if len(sets) == 0 {
		return errors.NewInvalidRequestError("no fields to update")
	}
	sets = append(sets, "updated_at = NOW()")
	query := fmt.Sprintf("UPDATE applicants SET %s WHERE id = %s", strings.Join(sets, ", "), w.next(id))
	return s.execOne(ctx, "fields updated", id, query, w.args...)
}

// Delete removes one applicant.
func (s *ApplicantStore) Delete(ctx context.Context, id int64) error {
	return s.execOne(ctx, "deleted", id, "DELETE FROM applicants WHERE id = $1", id)
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// bulk runs one statement over ids inside a transaction and commits only
// when every id was affected.
func (s *ApplicantStore) bulk(ctx context.Context, op string, ids []int64, query string, args ...interface{}) (int64, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, errors.NewInvalidRequestError("no applicants selected")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.NewDatabaseUpdateFailedError("applicant", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, query, append(args, pq.Array(ids))...)
	if err != nil {
		return 0, errors.NewDatabaseUpdateFailedError("applicant", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewDatabaseUpdateFailedError("applicant", err)
	}
	if n != int64(len(ids)) {
		s.logger.Warn("bulk "+op+" rolled back", map[string]interface{}{
			"requested": len(ids),
			"affected":  n,
		})
		return 0, errors.NewBulkPartialFailureError(int64(len(ids)), n)
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.NewDatabaseUpdateFailedError("applicant", err)
	}

	s.logger.Info("bulk "+op, map[string]interface{}{"count": n})
	return n, nil
}

// BulkUpdateStatus moves every id to status or none of them.
func (s *ApplicantStore) BulkUpdateStatus(ctx context.Context, ids []int64, status models.Status) (int64, error) {
	return s.bulk(ctx, "status update", ids,
		"UPDATE applicants SET status = $1, updated_at = NOW() WHERE id = ANY($2)", string(status))
}

// BulkDelete deletes every id or none of them.
func (s *ApplicantStore) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	return s.bulk(ctx, "delete", ids, "DELETE FROM applicants WHERE id = ANY($1)")
}

// RecruiterForPlacement finds the recruiter phone of the placement an
// applicant chose. penempatan is the "<client> - <location>" label shown
// on the form.
func (s *ApplicantStore) RecruiterForPlacement(ctx context.Context, position, penempatan string) (string, error) {
	var phone string
	err := s.db.QueryRowContext(ctx, `
		SELECT pl.recruiter_phone
		FROM job_placements pl
		JOIN job_positions p ON p.id = pl.position_id
		JOIN job_clients c ON c.id = p.client_id
		WHERE p.name = $1 AND c.name || ' - ' || pl.location = $2
		ORDER BY pl.is_active DESC, pl.id
		LIMIT 1`, position, penempatan).Scan(&phone)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", errors.NewResourceNotFoundError("placement", penempatan)
	}
	if err != nil {
		return "", errors.NewQueryExecutionFailedError("recruiter_lookup", err)
	}
	return phone, nil
}
