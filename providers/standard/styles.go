package standard

import (
	"github.com/termfx/errers/internal/engine"
	"github.com/termfx/errers/providers"
)

var styles = []entry{
	{"drdc", engine.PhaseMain, styleDRDCMain},
	{"drdc_plain", engine.PhaseMain, styleDRDCMain},
}

var months = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// styleDRDCMain also carries \url, which the style defines when the
// document does not.
func styleDRDCMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\in`, `in`),
		eng.Rule(`\\In`, `In`),
		eng.Rule(`\\of`, `of`),
		eng.Rule(`\\and`, `and`),
		eng.Rule(`\\online`, `online`),
		eng.Rule(`\\accessdate`, `Access Date`),
		eng.Rule(`\\masters`, `Master's thesis`),
		eng.Rule(`\\phd`, `Ph.D. thesis`),
		eng.Rule(`\\U`, ``),
		// Out-of-range months are left alone.
		eng.MustRule(`\\numtomonth%C`, engine.Text(func(m *engine.Match) string {
			if name, ok := month(m.Group("c1"), 1, months); ok {
				return name
			}
			return m.Text()
		})),
	), nil
}
