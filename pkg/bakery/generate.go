package bakery

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Ticket generation odds.
const (
	minGratuity     = 0.10
	maxGratuity     = 0.35
	gratuityChance  = 0.95
	beverageChance  = 0.5
	loafChance      = 0.15
	breakfastChance = 0.777
	bagelChance     = 0.65
	cookieChance    = 0.42
)

// generateBlockSize is the number of transactions drawn from one PRNG
// stream. Each block is seeded from (seed, block index), which makes the
// output independent of how blocks are spread over goroutines.
const generateBlockSize = 4096

// Generate returns n synthetic transactions drawn from c. The same
// (catalog, n, seed) always yields the same transactions. Order numbers are
// the transaction indices.
func Generate(c *Catalog, n int, seed uint64) ([]Transaction, error) {
	err := checkGeneratable(c, n)
	if err != nil {
		return nil, err
	}

	txns := make([]Transaction, n)
	for start := 0; start < n; start += generateBlockSize {
		generateBlock(c, txns, start, seed)
	}

	return txns, nil
}

// GenerateParallel is [Generate] spread over up to workers goroutines
// (workers <= 0 means GOMAXPROCS). It returns exactly what Generate returns
// for the same arguments.
func GenerateParallel(ctx context.Context, c *Catalog, n int, seed uint64, workers int) ([]Transaction, error) {
	err := checkGeneratable(c, n)
	if err != nil {
		return nil, err
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	txns := make([]Transaction, n)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < n; start += generateBlockSize {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			// Blocks write disjoint ranges of txns.
			generateBlock(c, txns, start, seed)

			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		return nil, fmt.Errorf("generating transactions: %w", err)
	}

	return txns, nil
}

func checkGeneratable(c *Catalog, n int) error {
	if n < 0 {
		return fmt.Errorf("transaction count must be non-negative, got %d", n)
	}

	for _, t := range []FoodType{Beverage, Bread, Bagel, Pastry, Cookie, Sandwich} {
		if len(c.IDsOfType(t)) == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyCategory, t)
		}
	}

	return nil
}

func generateBlock(c *Catalog, txns []Transaction, start int, seed uint64) {
	end := min(start+generateBlockSize, len(txns))
	rng := rand.New(rand.NewPCG(seed, uint64(start/generateBlockSize)))

	for i := start; i < end; i++ {
		txns[i] = Transaction{
			OrderNumber: i,
			Gratuity:    drawGratuity(rng),
			Purchases:   drawTicket(c, rng),
		}
	}
}

// drawTicket picks at most four items: an optional beverage, an optional
// loaf, then either a breakfast item (bagel or pastry) or a lunch (optional
// cookie plus a sandwich).
func drawTicket(c *Catalog, rng *rand.Rand) Purchases {
	var p Purchases

	if roll(rng, beverageChance) {
		p = p.With(pick(c, Beverage, rng))
	}

	if roll(rng, loafChance) {
		p = p.With(pick(c, Bread, rng))
	}

	if roll(rng, breakfastChance) {
		if roll(rng, bagelChance) {
			p = p.With(pick(c, Bagel, rng))
		} else {
			p = p.With(pick(c, Pastry, rng))
		}

		return p
	}

	if roll(rng, cookieChance) {
		p = p.With(pick(c, Cookie, rng))
	}

	return p.With(pick(c, Sandwich, rng))
}

func drawGratuity(rng *rand.Rand) float64 {
	if !roll(rng, gratuityChance) {
		return 0
	}

	return minGratuity + rng.Float64()*(maxGratuity-minGratuity)
}

func pick(c *Catalog, t FoodType, rng *rand.Rand) int {
	ids := c.IDsOfType(t)

	return ids[rng.IntN(len(ids))]
}

func roll(rng *rand.Rand, chance float64) bool {
	return rng.Float64() < chance
}
