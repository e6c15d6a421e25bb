package main

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/AdamBeresnev/op-groups/internal/bracket"
	"github.com/AdamBeresnev/op-groups/internal/httputil"
	"github.com/AdamBeresnev/op-groups/internal/middleware"
	"github.com/AdamBeresnev/op-groups/internal/schedule"
	"github.com/AdamBeresnev/op-groups/internal/scoring"
	"github.com/AdamBeresnev/op-groups/internal/service"
	"github.com/AdamBeresnev/op-groups/internal/store"
	"github.com/AdamBeresnev/op-groups/internal/utils"
	"github.com/AdamBeresnev/op-groups/views"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func newRouter(database *sqlx.DB, sessionManager *scs.SessionManager, rules scoring.Rules, allowedOrigins []string) http.Handler {
	categoryStore := store.NewCategoryStore(database)
	groupStage := service.NewGroupStageService(database, categoryStore)
	matchService := service.NewMatchService(database, categoryStore)
	standingsService := service.NewStandingsService(categoryStore, rules)

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.LoadOperator(sessionManager))

	r.Post("/session", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			httputil.BadRequest(w, "Invalid form data", err)
			return
		}
		operator := strings.TrimSpace(r.Form.Get("operator"))
		if operator == "" {
			httputil.BadRequest(w, "Operator name is required", nil)
			return
		}
		if err := sessionManager.RenewToken(r.Context()); err != nil {
			httputil.InternalServerError(w, "Failed to renew session", err)
			return
		}
		sessionManager.Put(r.Context(), middleware.OperatorSessionKey, operator)
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		if err := sessionManager.Destroy(r.Context()); err != nil {
			httputil.InternalServerError(w, "Failed to end session", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/groups/{id}/standings", func(w http.ResponseWriter, r *http.Request) {
		groupID, ok := urlID(w, r, "Invalid group ID")
		if !ok {
			return
		}
		table, err := standingsService.GroupStandings(r.Context(), groupID)
		if err != nil {
			writeServiceError(w, "Failed to compute standings", err)
			return
		}
		if httputil.WantsJSON(r) {
			httputil.JSON(w, http.StatusOK, table)
			return
		}
		views.Render(w, r, views.GroupStandings(table))
	})

	r.Get("/categories/{id}/bracket", func(w http.ResponseWriter, r *http.Request) {
		categoryID, ok := urlID(w, r, "Invalid category ID")
		if !ok {
			return
		}
		b, err := standingsService.Bracket(r.Context(), categoryID)
		if err != nil {
			writeServiceError(w, "Failed to resolve bracket", err)
			return
		}
		if httputil.WantsJSON(r) {
			httputil.JSON(w, http.StatusOK, b)
			return
		}
		category, err := groupStage.GetCategory(r.Context(), categoryID)
		if err != nil {
			writeServiceError(w, "Failed to get category", err)
			return
		}
		views.Render(w, r, views.Bracket(category.Name, b))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireOperator)

		r.Post("/categories", func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				httputil.BadRequest(w, "Invalid form data", err)
				return
			}
			overrides, err := parseOverrides(r)
			if err != nil {
				httputil.BadRequest(w, err.Error(), err)
				return
			}
			id, err := groupStage.CreateCategory(r.Context(), r.Form.Get("name"), overrides)
			if err != nil {
				writeServiceError(w, "Failed to create category", err)
				return
			}
			httputil.JSON(w, http.StatusCreated, map[string]uuid.UUID{"id": id})
		})

		r.Post("/categories/{id}/registrations", func(w http.ResponseWriter, r *http.Request) {
			categoryID, ok := urlID(w, r, "Invalid category ID")
			if !ok {
				return
			}
			if err := r.ParseForm(); err != nil {
				httputil.BadRequest(w, "Invalid form data", err)
				return
			}
			inputs := service.ParseRegistrationLines(r.Form.Get("class"), r.Form.Get("names"))
			if len(inputs) == 0 {
				httputil.BadRequest(w, "At least one name is required", nil)
				return
			}
			regs, err := groupStage.Register(r.Context(), categoryID, inputs)
			if err != nil {
				writeServiceError(w, "Failed to register", err)
				return
			}
			httputil.JSON(w, http.StatusCreated, regs)
		})

		r.Post("/categories/{id}/rounds", func(w http.ResponseWriter, r *http.Request) {
			categoryID, ok := urlID(w, r, "Invalid category ID")
			if !ok {
				return
			}
			if err := r.ParseForm(); err != nil {
				httputil.BadRequest(w, "Invalid form data", err)
				return
			}
			numbers, phases := r.Form["number"], r.Form["phase"]
			inputs := make([]service.RoundInput, 0, len(numbers))
			for i, raw := range numbers {
				n, err := strconv.Atoi(raw)
				if err != nil {
					httputil.BadRequest(w, fmt.Sprintf("Invalid round number '%s'", raw), err)
					return
				}
				input := service.RoundInput{Number: n}
				if i < len(phases) {
					input.Phase = bracket.RoundPhase(phases[i])
				}
				inputs = append(inputs, input)
			}
			rounds, err := groupStage.CreateRounds(r.Context(), categoryID, inputs)
			if err != nil {
				writeServiceError(w, "Failed to create rounds", err)
				return
			}
			httputil.JSON(w, http.StatusCreated, rounds)
		})

		r.Post("/categories/{id}/groups", func(w http.ResponseWriter, r *http.Request) {
			categoryID, ok := urlID(w, r, "Invalid category ID")
			if !ok {
				return
			}
			if err := r.ParseForm(); err != nil {
				httputil.BadRequest(w, "Invalid form data", err)
				return
			}
			var members []uuid.UUID
			for _, raw := range r.Form["member"] {
				id, err := uuid.Parse(raw)
				if err != nil {
					httputil.BadRequest(w, "Invalid member ID", err)
					return
				}
				members = append(members, id)
			}
			group, err := groupStage.Draw(r.Context(), categoryID, r.Form.Get("name"), members)
			if err != nil {
				writeServiceError(w, "Failed to draw group", err)
				return
			}
			httputil.JSON(w, http.StatusCreated, group)
		})

		r.Post("/categories/{id}/knockout", func(w http.ResponseWriter, r *http.Request) {
			categoryID, ok := urlID(w, r, "Invalid category ID")
			if !ok {
				return
			}
			if err := r.ParseForm(); err != nil {
				httputil.BadRequest(w, "Invalid form data", err)
				return
			}
			var ids [3]*uuid.UUID
			for i, field := range []string{"round_id", "registration_1_id", "registration_2_id"} {
				raw := utils.StringOrNil(r.Form.Get(field))
				if raw == nil {
					continue
				}
				id, err := uuid.Parse(*raw)
				if err != nil {
					httputil.BadRequest(w, "Invalid "+field, err)
					return
				}
				ids[i] = &id
			}
			match, err := groupStage.CreateKnockoutMatch(r.Context(), categoryID, bracket.MatchPhase(r.Form.Get("phase")), ids[0], ids[1], ids[2])
			if err != nil {
				writeServiceError(w, "Failed to create knockout match", err)
				return
			}
			httputil.JSON(w, http.StatusCreated, match)
		})

		r.Post("/groups/{id}/fixtures", func(w http.ResponseWriter, r *http.Request) {
			groupID, ok := urlID(w, r, "Invalid group ID")
			if !ok {
				return
			}
			matches, err := groupStage.GenerateFixtures(r.Context(), groupID)
			if err != nil {
				writeServiceError(w, "Failed to generate fixtures", err)
				return
			}
			httputil.JSON(w, http.StatusCreated, matches)
		})

		r.Post("/matches/{id}/result", func(w http.ResponseWriter, r *http.Request) {
			matchID, ok := urlID(w, r, "Invalid match ID")
			if !ok {
				return
			}
			if err := r.ParseForm(); err != nil {
				httputil.BadRequest(w, "Invalid form data", err)
				return
			}

			var match *bracket.Match
			var err error
			switch bracket.ResultKind(r.Form.Get("kind")) {
			case bracket.ResultPlayed, "":
				sets1, perr := parseSets(r.Form.Get("sets_1"))
				if perr != nil {
					httputil.BadRequest(w, "Invalid sets_1", perr)
					return
				}
				sets2, perr := parseSets(r.Form.Get("sets_2"))
				if perr != nil {
					httputil.BadRequest(w, "Invalid sets_2", perr)
					return
				}
				match, err = matchService.RecordPlayed(r.Context(), matchID, sets1, sets2)
			case bracket.ResultWalkover:
				winnerID, perr := uuid.Parse(r.Form.Get("winner_id"))
				if perr != nil {
					httputil.BadRequest(w, "Invalid winner ID", perr)
					return
				}
				match, err = matchService.RecordWalkover(r.Context(), matchID, winnerID)
			case bracket.ResultTechnicalDraw:
				match, err = matchService.RecordTechnicalDraw(r.Context(), matchID)
			default:
				httputil.BadRequest(w, "Unknown result kind", nil)
				return
			}
			if err != nil {
				writeServiceError(w, "Failed to record result", err)
				return
			}
			httputil.JSON(w, http.StatusOK, match)
		})

		r.Post("/matches/{id}/reopen", func(w http.ResponseWriter, r *http.Request) {
			matchID, ok := urlID(w, r, "Invalid match ID")
			if !ok {
				return
			}
			match, err := matchService.Reopen(r.Context(), matchID)
			if err != nil {
				writeServiceError(w, "Failed to reopen match", err)
				return
			}
			httputil.JSON(w, http.StatusOK, match)
		})

		r.Post("/matches/{id}/opponents", func(w http.ResponseWriter, r *http.Request) {
			matchID, ok := urlID(w, r, "Invalid match ID")
			if !ok {
				return
			}
			if err := r.ParseForm(); err != nil {
				httputil.BadRequest(w, "Invalid form data", err)
				return
			}
			slot, err := strconv.Atoi(r.Form.Get("slot"))
			if err != nil {
				httputil.BadRequest(w, "Invalid slot", err)
				return
			}
			registrationID, err := uuid.Parse(r.Form.Get("registration_id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid registration ID", err)
				return
			}
			match, err := matchService.AssignOpponent(r.Context(), matchID, slot, registrationID)
			if err != nil {
				writeServiceError(w, "Failed to assign opponent", err)
				return
			}
			httputil.JSON(w, http.StatusOK, match)
		})
	})

	return r
}

func urlID(w http.ResponseWriter, r *http.Request, msg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.BadRequest(w, msg, err)
		return uuid.Nil, false
	}
	return id, true
}

// parseSets reads a comma separated list of games per set, e.g. "6,4,7".
func parseSets(raw string) (bracket.Sets, error) {
	var sets bracket.Sets
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		games, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		sets = append(sets, games)
	}
	return sets, nil
}

func parseOverrides(r *http.Request) (scoring.Overrides, error) {
	var o scoring.Overrides
	fields := []struct {
		name string
		dst  **int
	}{
		{"pts_victory", &o.Victory},
		{"pts_defeat", &o.Defeat},
		{"pts_wo_victory", &o.WoVictory},
		{"pts_set", &o.Set},
		{"pts_game", &o.Game},
		{"pts_technical_draw", &o.TechnicalDraw},
	}
	for _, f := range fields {
		raw := utils.StringOrNil(r.Form.Get(f.name))
		if raw == nil {
			continue
		}
		v, err := strconv.Atoi(*raw)
		if err != nil {
			return o, fmt.Errorf("invalid %s: %w", f.name, err)
		}
		*f.dst = utils.Ptr(v)
	}
	return o, nil
}

var badInputErrors = []error{
	bracket.ErrInvalidTransition,
	bracket.ErrInvalidScore,
	bracket.ErrUndecidedScore,
	bracket.ErrNotParticipant,
	bracket.ErrTechnicalDrawNotAllowed,
	bracket.ErrInvalidSlot,
	schedule.ErrUnsupportedGroupSize,
	schedule.ErrInvalidDrawOrder,
	service.ErrInvalidGroupSize,
	service.ErrForeignRegistration,
	service.ErrDuplicateMember,
	service.ErrAlreadyDrawn,
	service.ErrEmptyName,
	service.ErrNoGroupRounds,
	service.ErrInvalidRoundNumber,
	service.ErrNotKnockoutPhase,
}

// writeServiceError maps domain errors to 4xx responses and everything else to 500.
func writeServiceError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		httputil.NotFound(w, "Not found", err)
		return
	case errors.Is(err, service.ErrFixturesExist):
		httputil.Conflict(w, err.Error(), err)
		return
	case errors.Is(err, service.ErrOperatorRequired):
		httputil.Unauthorized(w, "Operator session required")
		return
	}
	for _, target := range badInputErrors {
		if errors.Is(err, target) {
			httputil.BadRequest(w, err.Error(), err)
			return
		}
	}
	httputil.InternalServerError(w, msg, err)
}
