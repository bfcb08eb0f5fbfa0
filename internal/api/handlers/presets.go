package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"microgrid-sizer/internal/api/models"
	"microgrid-sizer/internal/config"
	"microgrid-sizer/internal/model"

	"github.com/gin-gonic/gin"
)

// PresetHandler lists system presets and resolves requests against them
type PresetHandler struct {
	presetDir string
}

// NewPresetHandler creates a preset handler. An empty dir falls back to
// PRESET_DIR, then to ./examples/systems.
func NewPresetHandler(dir string) *PresetHandler {
	if dir == "" {
		dir = os.Getenv("PRESET_DIR")
	}
	if dir == "" {
		dir = filepath.Join("examples", "systems")
	}
	// Convert to absolute path for reliability
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	log.Printf("[PresetHandler] using preset directory %s", dir)
	return &PresetHandler{presetDir: dir}
}

func (h *PresetHandler) Dir() string { return h.presetDir }

// ListPresets handles GET /api/v1/presets
func (h *PresetHandler) ListPresets(c *gin.Context) {
	presets := []models.PresetInfo{}

	entries, err := os.ReadDir(h.presetDir)
	if err != nil {
		log.Printf("[PresetHandler] failed to read %s: %v", h.presetDir, err)
		c.JSON(http.StatusOK, gin.H{"presets": presets})
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(h.presetDir, entry.Name())
		sys, err := config.LoadSystemFile(path)
		if err != nil {
			log.Printf("[PresetHandler] skipping %s: %v", path, err)
			continue
		}
		presets = append(presets, models.PresetInfo{
			ID:   strings.TrimSuffix(entry.Name(), ".yaml"),
			File: path,
			Specs: models.PresetSpecs{
				StepHours:      sys.StepHours,
				PVModuleKW:     sys.PV.ModuleKW,
				StorageUnitKWh: sys.Storage.UnitKWh,
				BackupUnitKW:   sys.Backup.UnitKW,
				Priority:       string(sys.Dispatch.Priority),
			},
		})
	}

	c.JSON(http.StatusOK, gin.H{"presets": presets})
}

// Resolve loads the named preset (if any), overlays inline parameters
// and validates the result.
func (h *PresetHandler) Resolve(in models.SystemInput) (model.SystemParams, error) {
	sys := in.System
	if in.Preset != "" {
		// Presets are bare ids (e.g. "island_village"), never paths.
		if strings.ContainsAny(in.Preset, `/\`) || strings.Contains(in.Preset, "..") {
			return model.SystemParams{}, invalid("INVALID_PRESET", fmt.Errorf("preset %q is not a valid id", in.Preset))
		}
		base, err := config.LoadSystemFile(filepath.Join(h.presetDir, in.Preset+".yaml"))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return model.SystemParams{}, &requestError{status: http.StatusNotFound, code: "PRESET_NOT_FOUND", err: fmt.Errorf("preset %q not found", in.Preset)}
			}
			return model.SystemParams{}, invalid("INVALID_PRESET", err)
		}
		sys = config.MergeSystem(base, in.System)
	}
	if sys.Dispatch.Priority == "" {
		sys.Dispatch.Priority = model.PriorityStorageFirst
	}
	if err := sys.Validate(); err != nil {
		return model.SystemParams{}, invalid("INVALID_SYSTEM", err)
	}
	return sys, nil
}
