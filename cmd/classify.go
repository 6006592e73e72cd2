package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/courtscout/internal/classify"
	"github.com/sells-group/courtscout/internal/store"
	"github.com/sells-group/courtscout/internal/venue"
)

var (
	classifyIndoor bool
	classifyAll    bool
	classifyDryRun bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Assign venue types to persisted records that have none",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		cl, err := loadClassifier()
		if err != nil {
			return err
		}

		var indoor *bool
		if !classifyAll {
			indoor = &classifyIndoor
		}
		res, err := repairTypes(ctx, st, cl, indoor, classifyDryRun)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "unset: %d  updates: %d  records updated: %d  failed: %d\n", //nolint:errcheck
			res.Unset, res.Requests, res.Updated, res.Failed)
		return nil
	},
}

type repairResult struct {
	Unset    int
	Requests int
	Updated  int64
	Failed   int
}

type repairKey struct {
	name   string
	indoor bool
}

// repairTypes classifies every record with an unset venue type and writes the
// result back with one update per distinct (name, indoor) pair. A nil indoor
// covers both. Update failures are logged and counted.
func repairTypes(ctx context.Context, st store.Store, cl *classify.Classifier, indoor *bool, dryRun bool) (repairResult, error) {
	log := zap.L().With(zap.String("component", "classify"))
	recs, err := st.List(ctx)
	if err != nil {
		return repairResult{}, err
	}

	var res repairResult
	seen := map[repairKey]bool{}
	for _, r := range recs {
		if r.VenueType != "" || (indoor != nil && r.Indoor != *indoor) {
			continue
		}
		res.Unset++
		k := repairKey{name: r.Name, indoor: r.Indoor}
		if seen[k] {
			continue
		}
		seen[k] = true

		vt := venue.TypeOutdoor
		if r.Indoor {
			vt = cl.VenueType(r.Name)
		}
		req := store.UpdateTypeRequest{
			VenueType:   vt,
			Access:      cl.Access(r.Name, vt),
			NamePattern: store.LiteralPattern(r.Name),
			Indoor:      &k.indoor,
			UnsetOnly:   true,
		}
		res.Requests++
		if dryRun {
			log.Info("would classify", zap.String("name", r.Name), zap.String("venue_type", string(vt)))
			continue
		}
		n, err := st.UpdateType(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failed++
			log.Warn("update type failed", zap.String("name", r.Name), zap.Error(err))
			continue
		}
		res.Updated += n
	}
	return res, nil
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyIndoor, "indoor", true, "classify indoor (true) or outdoor (false) records")
	classifyCmd.Flags().BoolVar(&classifyAll, "all", false, "classify indoor and outdoor records")
	classifyCmd.Flags().BoolVar(&classifyDryRun, "dry-run", false, "log the updates without applying them")
	rootCmd.AddCommand(classifyCmd)
}
