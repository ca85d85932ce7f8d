// Package catalog reads senior, animal and manager profiles for the matching
// engine and normalizes them at the data boundary.
package catalog

import (
	"context"
	"database/sql"
	stderrors "errors"

	"matchpet-workers/internal/common/errors"
	"matchpet-workers/internal/common/logger"
	"matchpet-workers/internal/models"

	"github.com/lib/pq"
)

// CandidateStatuses are the stored statuses worth fetching; PENDING rows are
// narrowed further by Animal.StatusEligible.
var CandidateStatuses = []string{string(models.StatusAvailable), string(models.StatusPending)}

type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "catalog.postgres"}),
	}
}

const seniorQuery = `
	SELECT s.id, COALESCE(s.name, ''), COALESCE(s.phone, ''), COALESCE(s.address, ''),
	       COALESCE(s.mobility_level, ''), COALESCE(s.preferred_visit_style, ''), COALESCE(s.tech_comfort, ''),
	       COALESCE(s.has_pet_experience, false), COALESCE(s.terms_agree, false), COALESCE(s.bodycam_agree, false),
	       s.preferred_pet_info, s.care_availability,
	       p.pred_mobility, p.conf_mobility, p.pred_visit_style, p.conf_visit_style, p.pred_tech, p.conf_tech
	FROM seniors s
	LEFT JOIN senior_predictions p ON p.senior_id = s.id
	WHERE s.id = $1`

func (s *PostgresStore) GetSenior(ctx context.Context, id string) (*models.Senior, error) {
	var (
		sr                                models.Senior
		mobility, visitStyle, tech        string
		prefsRaw, availRaw                []byte
		predMobility, predVisit, predTech sql.NullString
		confMobility, confVisit, confTech sql.NullInt64
	)

	err := s.db.QueryRowContext(ctx, seniorQuery, id).Scan(
		&sr.ID, &sr.Name, &sr.Phone, &sr.Address,
		&mobility, &visitStyle, &tech,
		&sr.HasPetExperience, &sr.TermsAgreed, &sr.BodycamAgreed,
		&prefsRaw, &availRaw,
		&predMobility, &confMobility, &predVisit, &confVisit, &predTech, &confTech,
	)
	if err != nil {
		return nil, s.queryError(ctx, "get_senior", "seniors", id, err)
	}

	sr.Mobility = models.ParseLevel(mobility)
	sr.VisitStyle = models.ParseStyle(visitStyle)
	sr.TechComfort = models.ParseLevel(tech)

	if sr.Preferences, err = ParsePreferences(prefsRaw); err != nil {
		s.logger.Warn("ignoring malformed preferences", map[string]interface{}{"seniorId": id, "error": err})
	}
	if sr.Availability, err = ParseAvailability(availRaw); err != nil {
		s.logger.Warn("ignoring malformed availability", map[string]interface{}{"seniorId": id, "error": err})
	}

	if predMobility.Valid || predVisit.Valid || predTech.Valid {
		sr.Predictions = &models.Predictions{
			Mobility:    models.Prediction{Value: predMobility.String, Confidence: int(confMobility.Int64)},
			VisitStyle:  models.Prediction{Value: predVisit.String, Confidence: int(confVisit.Int64)},
			TechComfort: models.Prediction{Value: predTech.String, Confidence: int(confTech.Int64)},
		}
	}
	return &sr, nil
}

const animalColumns = `
	SELECT id, COALESCE(desertion_no, ''), COALESCE(care_addr, ''), COALESCE(status, ''),
	       COALESCE(process_state, ''), COALESCE(special_mark, ''), COALESCE(kind_cd, ''),
	       COALESCE(sex_cd, ''), COALESCE(age, ''), COALESCE(weight, ''),
	       COALESCE(popfile, ''), COALESCE(filename, ''),
	       COALESCE(energy_level, ''), COALESCE(temperament, ''), COALESCE(device_required, false),
	       inferred_overlay
	FROM animals`

func (s *PostgresStore) GetAnimal(ctx context.Context, id string) (*models.Animal, error) {
	row := s.db.QueryRowContext(ctx, animalColumns+` WHERE id = $1`, id)
	a, err := s.scanAnimal(row)
	if err != nil {
		return nil, s.queryError(ctx, "get_animal", "animals", id, err)
	}
	return a, nil
}

func (s *PostgresStore) ListCandidates(ctx context.Context, district string, limit int) ([]*models.Animal, error) {
	rows, err := s.db.QueryContext(ctx,
		animalColumns+` WHERE city_district = $1 AND UPPER(status) = ANY($2) ORDER BY id LIMIT $3`,
		district, pq.Array(CandidateStatuses), limit)
	if err != nil {
		return nil, s.queryError(ctx, "list_candidates", "animals", district, err)
	}
	defer rows.Close()

	var out []*models.Animal
	for rows.Next() {
		a, err := s.scanAnimal(rows)
		if err != nil {
			return nil, s.queryError(ctx, "list_candidates", "animals", district, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, s.queryError(ctx, "list_candidates", "animals", district, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func (s *PostgresStore) scanAnimal(row scanner) (*models.Animal, error) {
	var (
		a                   models.Animal
		status, kindCd      string
		popfile, filename   string
		energy, temperament string
		overlayRaw          []byte
	)
	if err := row.Scan(
		&a.ID, &a.DesertionNo, &a.ShelterAddress, &status,
		&a.ProcessState, &a.SpecialMark, &kindCd,
		&a.Sex, &a.Age, &a.Weight,
		&popfile, &filename,
		&energy, &temperament, &a.DeviceRequired,
		&overlayRaw,
	); err != nil {
		return nil, err
	}

	a.Status = models.ParseAnimalStatus(status)
	a.Species = SpeciesOf(kindCd)
	a.Breed = SanitizeBreed(kindCd)
	a.Size = SizeClassOf(a.Weight)
	a.PhotoURL = PhotoURL(popfile, filename)
	a.Energy = models.ParseLevel(energy)
	a.Temperament = models.ParseStyle(temperament)

	overlay, err := ParseOverlay(overlayRaw)
	if err != nil {
		s.logger.Warn("ignoring malformed overlay", map[string]interface{}{"animalId": a.ID, "error": err})
	}
	a.Overlay = overlay
	return &a, nil
}

const managerQuery = `
	SELECT id, COALESCE(name, ''), COALESCE(intro, ''), COALESCE(photo_url, ''),
	       COALESCE(phone, ''), COALESCE(email, ''),
	       COALESCE(elderly_exp_level, ''), reliability_score, COALESCE(animal_skill_tags, '')
	FROM managers
	ORDER BY id`

func (s *PostgresStore) ListManagers(ctx context.Context) ([]*models.Manager, error) {
	rows, err := s.db.QueryContext(ctx, managerQuery)
	if err != nil {
		return nil, s.queryError(ctx, "list_managers", "managers", "", err)
	}
	defer rows.Close()

	var out []*models.Manager
	for rows.Next() {
		var (
			m           models.Manager
			experience  string
			reliability sql.NullFloat64
			tags        string
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.Intro, &m.PhotoURL, &m.Phone, &m.Email,
			&experience, &reliability, &tags); err != nil {
			return nil, s.queryError(ctx, "list_managers", "managers", "", err)
		}
		m.Experience = models.ParseLevel(experience)
		if reliability.Valid {
			r := reliability.Float64
			m.Reliability = &r
		}
		m.SkillTags = ParseSkillTags(tags)
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, s.queryError(ctx, "list_managers", "managers", "", err)
	}
	return out, nil
}

func (s *PostgresStore) queryError(ctx context.Context, queryType, resource, key string, err error) error {
	switch {
	case stderrors.Is(err, sql.ErrNoRows):
		return errors.NewResourceNotFoundError(resource, "id: "+key)
	case stderrors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded:
		return errors.NewQueryTimeoutError(queryType)
	default:
		return errors.NewQueryExecutionFailedError(queryType, err)
	}
}
