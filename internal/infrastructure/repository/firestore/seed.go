package firestore

import (
	"context"
	"time"

	gcfirestore "cloud.google.com/go/firestore"
	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/fantasy-prediction/internal/infrastructure/repository/memory"
)

// BootstrapSeed writes the demo fixtures when the matches collection is empty.
func BootstrapSeed(ctx context.Context, client *gcfirestore.Client, now time.Time) error {
	existing, err := client.Collection(matchesCollection).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return errors.Wrap(err, "probe matches for bootstrap seed")
	}
	if len(existing) > 0 {
		return nil
	}

	bw := client.BulkWriter(ctx)
	jobs := make([]*gcfirestore.BulkWriterJob, 0)
	for _, m := range memory.SeedMatches(now) {
		job, err := bw.Set(client.Collection(matchesCollection).Doc(m.ID), matchToDocument(m))
		if err != nil {
			bw.End()
			return errors.Wrapf(err, "enqueue seed match %s", m.ID)
		}
		jobs = append(jobs, job)
	}
	for _, p := range memory.SeedPlayers(now) {
		job, err := bw.Set(client.Collection(playersCollection).Doc(p.ID), playerToDocument(p))
		if err != nil {
			bw.End()
			return errors.Wrapf(err, "enqueue seed player %s", p.ID)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return errors.Wrap(err, "write seed document")
		}
	}
	return nil
}
