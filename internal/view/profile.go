package view

import (
	"cmp"
	"context"
	"io"
	"slices"
	"strconv"

	"github.com/a-h/templ"

	"github.com/msomdec/localmarket/internal/domain"
	"github.com/msomdec/localmarket/internal/service"
)

// datastarScript is the client bundle that drives data-* attributes.
const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

// BadgeID is the element id of an account's reputation badge.
func BadgeID(accountID string) string {
	return "manner-" + accountID
}

// ReputationBadge renders the score as a temperature, e.g. "36.5°C".
func ReputationBadge(accountID string, score domain.Score) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<span id="`+templ.EscapeString(BadgeID(accountID))+`" class="manner `+temperatureClass(score)+`">`+
			templ.EscapeString(score.String())+`°C</span>`)
		return err
	})
}

// ProfilePage renders a public profile with a badge that follows the live
// score stream.
func ProfilePage(rep *service.Reputation) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		name := templ.EscapeString(rep.DisplayName)
		live := templ.EscapeString("@get('/api/v1/users/" + rep.AccountID + "/manner/live')")

		if _, err := io.WriteString(w, `<!doctype html><html lang="ko"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1">`+
			`<title>`+name+`</title>`+
			`<script type="module" src="`+datastarScript+`"></script></head>`+
			`<body><main class="profile" data-init="`+live+`"><h1>`+name+`</h1><p>매너온도 `); err != nil {
			return err
		}
		if err := ReputationBadge(rep.AccountID, rep.Score).Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `</p>`); err != nil {
			return err
		}
		if err := tagList(rep.PositiveTags).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

func tagList(counts domain.TagCounts) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(counts) == 0 {
			_, err := io.WriteString(w, `<p class="tags-empty">아직 받은 칭찬이 없어요.</p>`)
			return err
		}

		// Most frequent first, ties by name so output is stable.
		tags := make([]string, 0, len(counts))
		for tag := range counts {
			tags = append(tags, tag)
		}
		slices.SortFunc(tags, func(a, b string) int {
			if c := cmp.Compare(counts[b], counts[a]); c != 0 {
				return c
			}
			return cmp.Compare(a, b)
		})

		if _, err := io.WriteString(w, `<ul class="tags">`); err != nil {
			return err
		}
		for _, tag := range tags {
			if _, err := io.WriteString(w, `<li><span class="tag">`+templ.EscapeString(tag)+`</span> <span class="count">`+
				strconv.Itoa(counts[tag])+`</span></li>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul>`)
		return err
	})
}

func temperatureClass(score domain.Score) string {
	switch {
	case score >= 500:
		return "hot"
	case score >= domain.DefaultScore:
		return "warm"
	default:
		return "cool"
	}
}
