package service

import (
	"errors"
	"testing"

	"github.com/atelier/internal/db"
)

func TestThemeUpdate(t *testing.T) {
	gdb, clock := setupServiceTestDB(t)
	clock.set(10)
	if err := db.SeedThemeDefaults(gdb); err != nil {
		t.Fatalf("seed theme: %v", err)
	}
	svc := NewThemeService(gdb)

	clock.set(20)
	changed, err := svc.Update([]ThemeChange{
		{Key: "color-bg", Value: "#123456;} body{display:none"},
		{Key: "color-text", Value: "#2d4a3d"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if changed != 1 {
		t.Fatalf("changed = %d, want 1", changed)
	}

	settings, err := svc.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	byKey := map[string]db.ThemeSetting{}
	for _, s := range settings {
		byKey[s.Key] = s
	}
	if got := byKey["color-bg"]; got.Value != "#123456 bodydisplay:none" || got.UpdatedAt != 20 {
		t.Fatalf("unexpected color-bg %+v", got)
	}
	if got := byKey["color-text"]; got.UpdatedAt != 10 {
		t.Fatalf("unchanged value should keep its timestamp, got %d", got.UpdatedAt)
	}
	if settings[0].Category != "colors" {
		t.Fatalf("settings should be ordered by category, got %+v", settings[0])
	}
}

func TestThemeUpdateRejectsUnknownKeys(t *testing.T) {
	gdb, clock := setupServiceTestDB(t)
	clock.set(10)
	if err := db.SeedThemeDefaults(gdb); err != nil {
		t.Fatalf("seed theme: %v", err)
	}
	svc := NewThemeService(gdb)

	clock.set(20)
	_, err := svc.Update([]ThemeChange{
		{Key: "color-bg", Value: "#000"},
		{Key: "color-nope", Value: "#fff"},
	})
	if !errors.Is(err, ErrThemeSettingNotFound) {
		t.Fatalf("expected ErrThemeSettingNotFound, got %v", err)
	}
	var setting db.ThemeSetting
	gdb.First(&setting, "key = ?", "color-bg")
	if setting.Value != "#fefefe" {
		t.Fatalf("batch should roll back, got %q", setting.Value)
	}

	if _, err := svc.Update([]ThemeChange{{Key: "color-bg", Value: "url("}}); !errors.Is(err, ErrThemeValueEmpty) {
		t.Fatalf("expected ErrThemeValueEmpty, got %v", err)
	}
}
