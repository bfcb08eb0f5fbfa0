package handlers

import (
	"net/http"

	"microgrid-sizer/internal/api/models"
	"microgrid-sizer/internal/dispatch"
	"microgrid-sizer/internal/search"

	"github.com/gin-gonic/gin"
)

// ListPolicies handles GET /api/v1/policies
func ListPolicies(c *gin.Context) {
	policies := []models.PolicyInfo{}
	for _, p := range dispatch.Policies() {
		policies = append(policies, models.PolicyInfo{Name: string(p.Priority), Description: p.Description})
	}

	g := search.DefaultGenetic()
	optimizers := []models.OptimizerInfo{
		{
			Name:        "genetic",
			Description: "Seeded genetic algorithm with tournament selection and elitism. Best effort: returns the best design visited.",
			Parameters: []models.ParameterInfo{
				{Name: "population", Type: "int", Description: "Designs per generation", Default: g.Population},
				{Name: "generations", Type: "int", Description: "Number of generations", Default: g.Generations},
				{Name: "crossover_rate", Type: "float", Description: "Probability two parents are blended", Default: g.CrossoverRate},
				{Name: "mutation_rate", Type: "float", Description: "Per-variable mutation probability", Default: g.MutationRate},
				{Name: "mutation_scale", Type: "float", Description: "Mutation sigma as a fraction of the bound width", Default: g.MutationScale},
				{Name: "tournament_size", Type: "int", Description: "Candidates per selection tournament", Default: g.TournamentSize},
				{Name: "elite", Type: "int", Description: "Best designs copied unchanged to the next generation", Default: g.Elite},
				{Name: "seed", Type: "int", Description: "Random seed; equal seeds give equal results", Default: g.Seed},
			},
		},
		{
			Name:        "grid",
			Description: "Exhaustive search over a regular lattice of the bounds.",
			Parameters: []models.ParameterInfo{
				{Name: "steps", Type: "list", Description: "Spacing per variable (pv, storage, backup, initial_soc); 0 picks a default"},
				{Name: "max_evaluations", Type: "int", Description: "Refuse lattices larger than this (0 = no limit)"},
			},
		},
	}

	c.JSON(http.StatusOK, gin.H{"policies": policies, "optimizers": optimizers})
}
