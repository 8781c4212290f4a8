package importers

import (
	"context"

	"github.com/warp/staffing-engine/bulk"
	"github.com/warp/staffing-engine/engine"
	"github.com/warp/staffing-engine/normalize"
)

// SkillsTaxonomy imports the skills family.
//
//	skills:          Name, Certification, Categories, Macro Categories
//	resource_skills: Resource, Skill, Level, Acquired Date, Expiration Date
//
// Skill metadata (the certification flag) merges. Every category of a row is
// linked to every macro category of the same row. Skills first seen in
// resource_skills are created without overwriting anything.
type SkillsTaxonomy struct{}

func (SkillsTaxonomy) Family() string { return "skills" }

func (SkillsTaxonomy) Import(ctx context.Context, run *engine.Run, p engine.Payload) error {
	maps, err := run.Maps.Preload(ctx, Skills, SkillCategories, SkillMacroCategories)
	if err != nil {
		return err
	}
	skillMap, categoryMap, macroMap := maps[0], maps[1], maps[2]
	ppl, err := loadPeople(ctx, run)
	if err != nil {
		return err
	}

	skills := bulk.NewBatch(skillsTarget)
	implicitSkills := bulk.NewBatch(implicitSkillsTarget)
	categories := bulk.NewBatch(skillCategoriesTarget)
	macros := bulk.NewBatch(skillMacroCategoriesTarget)
	skillCategories := bulk.NewBatch(skillCategoryMapTarget)
	categoryMacros := bulk.NewBatch(categoryMacroMapTarget)
	resourceSkills := bulk.NewBatch(resourceSkillsTarget)

	for i, rec := range p.Section("skills") {
		ref := row("skills", i)
		name := rec.String("Name")
		if name == "" {
			run.Warnf("%s: missing Name, skipped", ref)
			continue
		}

		sid, _ := skillMap.ResolveOrCreate(name)
		if sid == "" {
			run.Warnf("%s: skill %q matches several existing skills, skipped", ref, name)
			continue
		}
		if skills.Put(sid, sid, normalize.Presentable(name), rec.Bool("Certification")) {
			run.Warnf("%s: duplicate skill %q, last occurrence kept", ref, name)
		}

		var macroIDs []string
		for _, macro := range rec.List("Macro Categories") {
			mid, created := macroMap.ResolveOrCreate(macro)
			if mid == "" {
				run.Warnf("%s: macro category %q matches several existing ones, dropped", ref, macro)
				continue
			}
			if created {
				macros.Put(mid, mid, normalize.Presentable(macro))
			}
			macroIDs = append(macroIDs, mid)
		}

		for _, category := range rec.List("Categories") {
			cid, created := categoryMap.ResolveOrCreate(category)
			if cid == "" {
				run.Warnf("%s: category %q matches several existing ones, dropped", ref, category)
				continue
			}
			if created {
				categories.Put(cid, cid, normalize.Presentable(category))
			}
			skillCategories.Put(sid+"|"+cid, sid, cid)
			for _, mid := range macroIDs {
				categoryMacros.Put(cid+"|"+mid, cid, mid)
			}
		}
	}

	for i, rec := range p.Section("resource_skills") {
		ref := row("resource_skills", i)

		resource := rec.String("Resource")
		resourceID, reason := ppl.resolve(resource)
		if resourceID == "" {
			run.Warnf("%s: resource %q %s, skipped", ref, resource, reason)
			continue
		}
		skill := rec.String("Skill")
		if skill == "" {
			run.Warnf("%s: missing Skill, skipped", ref)
			continue
		}

		sid, created := skillMap.ResolveOrCreate(skill)
		if sid == "" {
			run.Warnf("%s: skill %q matches several existing skills, skipped", ref, skill)
			continue
		}
		if created {
			implicitSkills.Put(sid, sid, normalize.Presentable(skill), false)
		}

		replaced := resourceSkills.Put(resourceID+"|"+sid,
			resourceID, sid,
			rec.OptInt("Level"),
			rec.Date("Acquired Date"),
			rec.Date("Expiration Date"),
		)
		if replaced {
			run.Warnf("%s: duplicate skill %q for %q, last occurrence kept", ref, skill, resource)
		}
	}

	return run.Flush(ctx,
		skills, implicitSkills,
		categories, macros,
		skillCategories, categoryMacros,
		resourceSkills,
	)
}
