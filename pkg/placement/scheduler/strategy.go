/*
Copyright 2025 The KCP Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package scheduler

import (
	"math/rand"
	"time"

	"github.com/kcp-dev/placer/pkg/placement/spec"
)

// Strategy picks count hosts out of a pool of equally eligible hosts. The
// pool is in lexical hostname order. Implementations must not modify it.
type Strategy interface {
	Place(pool []spec.HostPlacementSpec, count int) []spec.HostPlacementSpec
}

// StrategyFunc adapts a function to a Strategy.
type StrategyFunc func(pool []spec.HostPlacementSpec, count int) []spec.HostPlacementSpec

// Place implements Strategy.
func (f StrategyFunc) Place(pool []spec.HostPlacementSpec, count int) []spec.HostPlacementSpec {
	return f(pool, count)
}

// RandomStrategy picks a uniformly random subset. It is not safe for
// concurrent use.
type RandomStrategy struct {
	rnd *rand.Rand
}

// NewRandomStrategy returns a RandomStrategy drawing from src. Pass a
// fixed-seed source for reproducible choices.
func NewRandomStrategy(src rand.Source) *RandomStrategy {
	return &RandomStrategy{rnd: rand.New(src)}
}

// Place implements Strategy.
func (s *RandomStrategy) Place(pool []spec.HostPlacementSpec, count int) []spec.HostPlacementSpec {
	if count <= 0 || len(pool) == 0 {
		return []spec.HostPlacementSpec{}
	}
	shuffled := make([]spec.HostPlacementSpec, len(pool))
	copy(shuffled, pool)
	s.rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if count > len(shuffled) {
		count = len(shuffled)
	}
	return shuffled[:count]
}

// LexicalStrategy picks the lexically first hosts, so its choices are fully
// reproducible.
type LexicalStrategy struct{}

// Place implements Strategy.
func (LexicalStrategy) Place(pool []spec.HostPlacementSpec, count int) []spec.HostPlacementSpec {
	if count <= 0 || len(pool) == 0 {
		return []spec.HostPlacementSpec{}
	}
	if count > len(pool) {
		count = len(pool)
	}
	out := make([]spec.HostPlacementSpec, count)
	copy(out, pool[:count])
	return out
}

func defaultStrategy() Strategy {
	return NewRandomStrategy(rand.NewSource(time.Now().UnixNano()))
}
