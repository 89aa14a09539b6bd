package timetable

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/limaJavier/coursetable/pkg/sat"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Diagnostic summarises why no schedule was produced. Classes, when known, name the constraint
// classes that cannot hold together.
type Diagnostic struct {
	Classes []string `json:"classes,omitempty"`
	Message string   `json:"message"`
}

var classDescriptions = map[string]string{
	roomTag:         "room double booking",
	facultyTag:      "faculty double booking",
	facultyLoadTag:  "faculty weekly load",
	studentTag:      "student clashes",
	availabilityTag: "room and faculty availability",
}

// explain looks for a small set of constraint classes that are infeasible together, within its own budget.
func explain(ctx context.Context, instance sat.SAT, budget time.Duration, logger *zap.Logger) *Diagnostic {
	explainCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	classes, err := sat.Explain(explainCtx, instance)
	if err != nil {
		logger.Warn("cannot explain infeasibility", zap.Error(err))
	}
	if len(classes) == 0 {
		return &Diagnostic{Message: "no schedule satisfies every hard constraint; the conflicting constraint classes could not be isolated"}
	}

	logger.Info("infeasibility explained", zap.Strings("classes", classes))
	descriptions := lo.Map(classes, func(class string, _ int) string {
		return fmt.Sprintf("%s (%s)", class, classDescriptions[class])
	})
	return &Diagnostic{
		Classes: classes,
		Message: "no schedule satisfies these constraint classes together: " + strings.Join(descriptions, ", "),
	}
}

func timeoutDiagnostic(limit time.Duration) *Diagnostic {
	return &Diagnostic{Message: fmt.Sprintf("no feasible schedule was found within the %v time limit", limit)}
}
