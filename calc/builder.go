package calc

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crestline-lending/income-engine/dto"
)

// BuildResult is the component set derived from one borrower's documents,
// plus the warnings raised while building it.
type BuildResult struct {
	Components []dto.IncomeComponent
	Warnings   []string
}

// sourceDoc pairs a successfully extracted document with its decoded fields.
type sourceDoc struct {
	doc    *dto.IncomeDocument
	fields dto.FieldSet
}

// BuildComponents maps extracted fields from a borrower's documents into
// typed income components, each with a deterministic monthly amount. Absence
// of sufficient data excludes a category (with a warning) rather than
// producing an unexplained zero component.
func BuildComponents(docs []dto.IncomeDocument) BuildResult {
	var res BuildResult

	// Deterministic input order regardless of storage order.
	sorted := make([]dto.IncomeDocument, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID.String() < sorted[j].ID.String()
	})

	var (
		payStubs, w2s, voes             []sourceDoc
		scheduleCs, scheduleFs          []sourceDoc
		form1099s, k1s, businessReturns []sourceDoc
		scheduleEs, form1040s           []sourceDoc
	)

	for i := range sorted {
		doc := &sorted[i]
		if doc.OCRStatus != dto.OCRStatusSuccess {
			continue
		}
		if diag := doc.Diagnostics(); diag.ClassificationOverride {
			res.Warnings = append(res.Warnings,
				warnReclassified(doc.FileName, string(diag.OriginalClassification), string(doc.FinalType)))
		}
		if doc.FinalType == dto.DocTypeOther {
			res.Warnings = append(res.Warnings, warnOtherDocument(doc.FileName))
			continue
		}
		fields, err := doc.Fields()
		if err != nil || fields == nil {
			continue
		}
		sd := sourceDoc{doc: doc, fields: fields}
		switch doc.FinalType {
		case dto.DocTypePayStub:
			payStubs = append(payStubs, sd)
		case dto.DocTypeW2:
			w2s = append(w2s, sd)
		case dto.DocTypeVOE:
			voes = append(voes, sd)
		case dto.DocTypeScheduleC:
			scheduleCs = append(scheduleCs, sd)
		case dto.DocTypeScheduleF:
			scheduleFs = append(scheduleFs, sd)
		case dto.DocType1099:
			form1099s = append(form1099s, sd)
		case dto.DocTypeK1:
			k1s = append(k1s, sd)
		case dto.DocType1065, dto.DocType1120S:
			businessReturns = append(businessReturns, sd)
		case dto.DocTypeScheduleE:
			scheduleEs = append(scheduleEs, sd)
		case dto.DocType1040:
			form1040s = append(form1040s, sd)
		}
	}

	res.buildWageComponents(payStubs, w2s, voes, form1040s)
	res.buildSelfEmployment(scheduleCs, "Schedule C", dto.ComponentSelfEmployment)
	res.buildSelfEmployment(scheduleFs, "Schedule F", dto.ComponentSelfEmployment)
	res.build1099Components(form1099s)
	res.buildK1Components(k1s, businessReturns)
	res.buildRentalComponents(scheduleEs)

	return res
}

func fptr(v float64) *float64 { return &v }

func docIDs(sds ...sourceDoc) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(sds))
	for _, sd := range sds {
		ids = append(ids, sd.doc.ID)
	}
	return ids
}

// provenance stamps source-document metadata used later by the aggregator
// (warnings) and the confidence scorer (weighting).
func provenance(c *dto.IncomeComponent, sds ...sourceDoc) {
	c.SetDocumentIDs(docIDs(sds...))
	minConf := 1.0
	for _, sd := range sds {
		if sd.doc.Confidence < minConf {
			minConf = sd.doc.Confidence
		}
		if sd.doc.Diagnostics().OCRUsed {
			c.OCRDerived = true
		}
	}
	if len(sds) == 0 {
		minConf = 0
	}
	c.SourceConfidence = minConf
}

// monthsElapsed counts whole months of the year covered as of a period end.
// A stub ending September 30 has nine months of YTD earnings behind it.
func monthsElapsed(end time.Time) float64 {
	return float64(int(end.Month()))
}

// buildWageComponents derives base wage income with a source preference of
// pay stub, then VOE, then W-2, then 1040 wages; lower-preference documents
// still contribute variable income and year-over-year provenance.
func (r *BuildResult) buildWageComponents(payStubs, w2s, voes, form1040s []sourceDoc) {
	switch {
	case len(payStubs) > 0:
		best := mostRecentStub(payStubs)
		ps := best.fields.(*dto.PayStubFields)
		c := dto.IncomeComponent{}
		switch {
		case ps.HasYTD && ps.YTDGross > 0 && ps.PeriodEnd != nil:
			months := monthsElapsed(*ps.PeriodEnd)
			c.Type = dto.ComponentBaseSalary
			c.CalculationMethod = "YTD annualized"
			c.MonthlyAmount = ps.YTDGross / months
			c.Notes = fmt.Sprintf("YTD gross $%.2f over %.0f months", ps.YTDGross, months)
		case ps.HourlyRate > 0 && ps.HoursWorked > 0 && ps.PayFrequency != "":
			c.Type = dto.ComponentBaseHourly
			c.CalculationMethod = "hourly rate x hours, monthly equivalent"
			c.MonthlyAmount = ps.HourlyRate * ps.HoursWorked * ps.PayFrequency.MonthlyFactor()
		case ps.GrossPay > 0 && ps.PayFrequency != "":
			c.Type = dto.ComponentBaseSalary
			c.CalculationMethod = "current gross, monthly equivalent"
			c.MonthlyAmount = ps.GrossPay * ps.PayFrequency.MonthlyFactor()
		default:
			r.Warnings = append(r.Warnings,
				fmt.Sprintf("pay stub %q lacks YTD figures and pay frequency; wage income not derivable from it", best.doc.FileName))
			r.buildWageComponents(nil, w2s, voes, form1040s)
			return
		}
		provenance(&c, best)
		r.Components = append(r.Components, c)
		r.buildStubVariable(best, ps)

	case len(voes) > 0:
		sd := voes[len(voes)-1]
		voe := sd.fields.(*dto.VOEFields)
		if voe.AnnualBaseSalary > 0 {
			c := dto.IncomeComponent{
				Type:              dto.ComponentVOEVerified,
				CalculationMethod: "VOE annual base salary / 12",
				MonthlyAmount:     voe.AnnualBaseSalary / 12,
				Notes:             fmt.Sprintf("verified by employer %s", voe.Employer),
			}
			provenance(&c, sd)
			r.Components = append(r.Components, c)
		}
		r.buildVOEVariable(sd, voe)

	case len(w2s) > 0:
		r.buildW2Component(w2s)

	case len(form1040s) > 0:
		sd := mostRecentByYear(form1040s)
		f := sd.fields.(*dto.Form1040Fields)
		amount := f.Wages
		if amount == 0 {
			amount = f.TotalIncome
		}
		if amount != 0 {
			c := dto.IncomeComponent{
				Type:              dto.ComponentW2Income,
				CalculationMethod: "1040 wages / 12",
				MonthlyAmount:     amount / 12,
				Year1Amount:       fptr(amount),
				Notes:             fmt.Sprintf("from %d individual return; no wage documents on file", f.TaxYear),
			}
			provenance(&c, sd)
			r.Components = append(r.Components, c)
		}
	}
}

func (r *BuildResult) buildW2Component(w2s []sourceDoc) {
	byYear := map[int]sourceDoc{}
	years := []int{}
	for _, sd := range w2s {
		w2 := sd.fields.(*dto.W2Fields)
		if w2.TaxYear == 0 || w2.WagesBox1 == 0 {
			continue
		}
		if _, seen := byYear[w2.TaxYear]; !seen {
			years = append(years, w2.TaxYear)
		}
		byYear[w2.TaxYear] = sd
	}
	if len(years) == 0 {
		return
	}
	sort.Ints(years)
	recent := byYear[years[len(years)-1]]
	recentWages := recent.fields.(*dto.W2Fields).WagesBox1

	if len(years) >= 2 {
		prior := byYear[years[len(years)-2]]
		priorWages := prior.fields.(*dto.W2Fields).WagesBox1
		c := dto.IncomeComponent{
			Type:              dto.ComponentW2Income,
			CalculationMethod: "24-month average",
			Year1Amount:       fptr(priorWages),
			Year2Amount:       fptr(recentWages),
			MonthlyAmount:     (priorWages + recentWages) / 24,
			RecentYearMonthly: fptr(recentWages / 12),
		}
		provenance(&c, prior, recent)
		r.Components = append(r.Components, c)
		return
	}
	c := dto.IncomeComponent{
		Type:              dto.ComponentW2Income,
		CalculationMethod: "most recent W-2 / 12",
		Year1Amount:       fptr(recentWages),
		MonthlyAmount:     recentWages / 12,
	}
	provenance(&c, recent)
	r.Components = append(r.Components, c)
}

// buildStubVariable derives overtime/bonus/commission from a pay stub's YTD
// columns. A lone YTD figure is annualized; there is no prior-year leg, so no
// trend fields are set.
func (r *BuildResult) buildStubVariable(sd sourceDoc, ps *dto.PayStubFields) {
	if ps.PeriodEnd == nil {
		return
	}
	months := monthsElapsed(*ps.PeriodEnd)
	add := func(t dto.ComponentType, ytd float64) {
		if ytd <= 0 {
			return
		}
		c := dto.IncomeComponent{
			Type:              t,
			CalculationMethod: "YTD annualized",
			MonthlyAmount:     ytd / months,
			Notes:             fmt.Sprintf("YTD $%.2f over %.0f months; single period, no trend history", ytd, months),
		}
		provenance(&c, sd)
		r.Components = append(r.Components, c)
	}
	add(dto.ComponentOvertime, ps.YTDOvertime)
	add(dto.ComponentBonus, ps.YTDBonus)
	add(dto.ComponentCommission, ps.YTDCommission)
}

// buildVOEVariable derives overtime/bonus/commission from a VOE. With both a
// past-year figure and a current YTD figure the component carries two years
// and a 24-month average; with only one leg it is YTD-annualized.
func (r *BuildResult) buildVOEVariable(sd sourceDoc, voe *dto.VOEFields) {
	months := 12.0
	if voe.AsOf != nil {
		months = monthsElapsed(*voe.AsOf)
	}
	add := func(t dto.ComponentType, ytd, prior float64) {
		switch {
		case ytd > 0 && prior > 0:
			annualized := ytd / months * 12
			c := dto.IncomeComponent{
				Type:              t,
				CalculationMethod: "24-month average",
				Year1Amount:       fptr(prior),
				Year2Amount:       fptr(annualized),
				MonthlyAmount:     (prior + annualized) / 24,
				RecentYearMonthly: fptr(annualized / 12),
				Notes:             fmt.Sprintf("current year annualized from YTD $%.2f over %.0f months", ytd, months),
			}
			provenance(&c, sd)
			r.Components = append(r.Components, c)
		case ytd > 0:
			c := dto.IncomeComponent{
				Type:              dto.ComponentVariableIncomeYTD,
				CalculationMethod: "YTD annualized",
				MonthlyAmount:     ytd / months,
				Notes:             fmt.Sprintf("%s; no prior-year history on VOE", t),
			}
			provenance(&c, sd)
			r.Components = append(r.Components, c)
		}
	}
	add(dto.ComponentOvertime, voe.OvertimeYTD, voe.PriorYearOvertime)
	add(dto.ComponentBonus, voe.BonusYTD, voe.PriorYearBonus)
	add(dto.ComponentCommission, voe.CommissionYTD, voe.PriorYearCommission)
}

// selfEmpEntry is one entity-year of self-employment income with its
// agency add-backs (depreciation, depletion).
type selfEmpEntry struct {
	sd      sourceDoc
	year    int
	net     float64
	addBack float64
}

// buildSelfEmployment averages two years of the same entity's qualifying net
// income (net plus add-backs over 24 months) or falls back to a single year
// with an insufficient-history warning. Year1/Year2 amounts record the raw
// net income per year; add-backs appear in the notes.
func (r *BuildResult) buildSelfEmployment(docs []sourceDoc, source string, componentType dto.ComponentType) {
	byEntity := map[string][]selfEmpEntry{}
	names := []string{}
	for _, sd := range docs {
		var entry selfEmpEntry
		entry.sd = sd
		var name string
		switch f := sd.fields.(type) {
		case *dto.ScheduleCFields:
			name = normalizeEntity(f.BusinessName)
			entry.year = f.TaxYear
			entry.net = f.NetProfit
			entry.addBack = f.Depreciation + f.Depletion
		case *dto.ScheduleFFields:
			name = "farm"
			entry.year = f.TaxYear
			entry.net = f.NetFarmProfit
			entry.addBack = f.Depreciation
		default:
			continue
		}
		if entry.year == 0 {
			continue
		}
		if _, seen := byEntity[name]; !seen {
			names = append(names, name)
		}
		byEntity[name] = append(byEntity[name], entry)
	}
	sort.Strings(names)

	for _, name := range names {
		entries := byEntity[name]
		sort.Slice(entries, func(i, j int) bool { return entries[i].year < entries[j].year })
		// Collapse duplicate uploads of the same year to the latest one.
		byYear := map[int]selfEmpEntry{}
		years := []int{}
		for _, e := range entries {
			if _, seen := byYear[e.year]; !seen {
				years = append(years, e.year)
			}
			byYear[e.year] = e
		}
		sort.Ints(years)

		recent := byYear[years[len(years)-1]]
		if len(years) >= 2 {
			prior := byYear[years[len(years)-2]]
			c := dto.IncomeComponent{
				Type:              componentType,
				CalculationMethod: "24-month average",
				Year1Amount:       fptr(prior.net),
				Year2Amount:       fptr(recent.net),
				MonthlyAmount:     (prior.net + prior.addBack + recent.net + recent.addBack) / 24,
				RecentYearMonthly: fptr((recent.net + recent.addBack) / 12),
				Notes: fmt.Sprintf("%s; add-backs $%.2f (%d) and $%.2f (%d) for depreciation/depletion",
					source, prior.addBack, prior.year, recent.addBack, recent.year),
			}
			provenance(&c, prior.sd, recent.sd)
			r.Components = append(r.Components, c)
			continue
		}
		c := dto.IncomeComponent{
			Type:              componentType,
			CalculationMethod: "12-month (single year)",
			Year1Amount:       fptr(recent.net),
			MonthlyAmount:     (recent.net + recent.addBack) / 12,
			Notes:             fmt.Sprintf("%s %d; add-back $%.2f", source, recent.year, recent.addBack),
		}
		provenance(&c, recent.sd)
		r.Components = append(r.Components, c)
		r.Warnings = append(r.Warnings, warnSingleYearSelfEmployment(source))
	}
}

func (r *BuildResult) build1099Components(docs []sourceDoc) {
	byPayer := map[string][]sourceDoc{}
	names := []string{}
	for _, sd := range docs {
		f := sd.fields.(*dto.Form1099Fields)
		if f.TaxYear == 0 || f.NonemployeeComp == 0 {
			continue
		}
		name := normalizeEntity(f.Payer)
		if _, seen := byPayer[name]; !seen {
			names = append(names, name)
		}
		byPayer[name] = append(byPayer[name], sd)
	}
	sort.Strings(names)

	for _, name := range names {
		group := byPayer[name]
		sort.Slice(group, func(i, j int) bool {
			return group[i].fields.(*dto.Form1099Fields).TaxYear < group[j].fields.(*dto.Form1099Fields).TaxYear
		})
		recent := group[len(group)-1].fields.(*dto.Form1099Fields)
		if len(group) >= 2 {
			prior := group[len(group)-2].fields.(*dto.Form1099Fields)
			if prior.TaxYear != recent.TaxYear {
				c := dto.IncomeComponent{
					Type:              dto.ComponentSelfEmployment,
					CalculationMethod: "24-month average",
					Year1Amount:       fptr(prior.NonemployeeComp),
					Year2Amount:       fptr(recent.NonemployeeComp),
					MonthlyAmount:     (prior.NonemployeeComp + recent.NonemployeeComp) / 24,
					RecentYearMonthly: fptr(recent.NonemployeeComp / 12),
					Notes:             fmt.Sprintf("1099 nonemployee compensation from %s", recent.Payer),
				}
				provenance(&c, group[len(group)-2], group[len(group)-1])
				r.Components = append(r.Components, c)
				continue
			}
		}
		c := dto.IncomeComponent{
			Type:              dto.ComponentSelfEmployment,
			CalculationMethod: "12-month (single year)",
			Year1Amount:       fptr(recent.NonemployeeComp),
			MonthlyAmount:     recent.NonemployeeComp / 12,
			Notes:             fmt.Sprintf("1099 nonemployee compensation from %s, %d", recent.Payer, recent.TaxYear),
		}
		provenance(&c, group[len(group)-1])
		r.Components = append(r.Components, c)
		r.Warnings = append(r.Warnings, warnSingleYearSelfEmployment("1099 income"))
	}
}

// buildK1Components derives K-1 income per entity. A matching entity return
// (1065/1120-S) contributes a pro-rata depreciation add-back when the K-1
// carries an ownership percentage.
func (r *BuildResult) buildK1Components(k1s, businessReturns []sourceDoc) {
	type k1Entry struct {
		sd     sourceDoc
		fields *dto.K1Fields
	}
	byEntity := map[string][]k1Entry{}
	names := []string{}
	for _, sd := range k1s {
		f := sd.fields.(*dto.K1Fields)
		if f.TaxYear == 0 {
			continue
		}
		name := normalizeEntity(f.EntityName)
		if _, seen := byEntity[name]; !seen {
			names = append(names, name)
		}
		byEntity[name] = append(byEntity[name], k1Entry{sd: sd, fields: f})
	}
	sort.Strings(names)

	returnAddBack := func(entity string, year int, ownershipPct float64) (float64, *sourceDoc) {
		for i, sd := range businessReturns {
			f := sd.fields.(*dto.BusinessReturnFields)
			if normalizeEntity(f.EntityName) == entity && f.TaxYear == year && f.Depreciation > 0 && ownershipPct > 0 {
				return f.Depreciation * ownershipPct / 100, &businessReturns[i]
			}
		}
		return 0, nil
	}

	for _, name := range names {
		entries := byEntity[name]
		sort.Slice(entries, func(i, j int) bool { return entries[i].fields.TaxYear < entries[j].fields.TaxYear })

		recent := entries[len(entries)-1]
		recentTotal := recent.fields.OrdinaryIncome + recent.fields.GuaranteedPayments
		recentAB, recentRet := returnAddBack(name, recent.fields.TaxYear, recent.fields.OwnershipPercent)

		if len(entries) >= 2 && entries[len(entries)-2].fields.TaxYear != recent.fields.TaxYear {
			prior := entries[len(entries)-2]
			priorTotal := prior.fields.OrdinaryIncome + prior.fields.GuaranteedPayments
			priorAB, priorRet := returnAddBack(name, prior.fields.TaxYear, prior.fields.OwnershipPercent)
			c := dto.IncomeComponent{
				Type:              dto.ComponentK1Income,
				CalculationMethod: "24-month average",
				Year1Amount:       fptr(priorTotal),
				Year2Amount:       fptr(recentTotal),
				MonthlyAmount:     (priorTotal + priorAB + recentTotal + recentAB) / 24,
				RecentYearMonthly: fptr((recentTotal + recentAB) / 12),
				Notes:             fmt.Sprintf("K-1 from %s; pro-rata depreciation add-backs $%.2f and $%.2f", recent.fields.EntityName, priorAB, recentAB),
			}
			sources := []sourceDoc{prior.sd, recent.sd}
			if priorRet != nil {
				sources = append(sources, *priorRet)
			}
			if recentRet != nil {
				sources = append(sources, *recentRet)
			}
			provenance(&c, sources...)
			r.Components = append(r.Components, c)
			continue
		}

		c := dto.IncomeComponent{
			Type:              dto.ComponentK1Income,
			CalculationMethod: "12-month (single year)",
			Year1Amount:       fptr(recentTotal),
			MonthlyAmount:     (recentTotal + recentAB) / 12,
			Notes:             fmt.Sprintf("K-1 from %s, %d", recent.fields.EntityName, recent.fields.TaxYear),
		}
		sources := []sourceDoc{recent.sd}
		if recentRet != nil {
			sources = append(sources, *recentRet)
		}
		provenance(&c, sources...)
		r.Components = append(r.Components, c)
		r.Warnings = append(r.Warnings, warnSingleYearSelfEmployment("K-1 income"))
	}
}

// buildRentalComponents derives net rental income from the most recent
// Schedule E. Negative results are retained; they reduce total income.
func (r *BuildResult) buildRentalComponents(scheduleEs []sourceDoc) {
	if len(scheduleEs) == 0 {
		return
	}
	sort.Slice(scheduleEs, func(i, j int) bool {
		return scheduleEs[i].fields.(*dto.ScheduleEFields).TaxYear < scheduleEs[j].fields.(*dto.ScheduleEFields).TaxYear
	})
	recent := scheduleEs[len(scheduleEs)-1]
	f := recent.fields.(*dto.ScheduleEFields)
	if f.NetRental == 0 && f.TotalRents == 0 {
		return
	}
	c := dto.IncomeComponent{
		Type:              dto.ComponentRentalIncome,
		CalculationMethod: "Schedule E net rental / 12",
		Year1Amount:       fptr(f.NetRental),
		MonthlyAmount:     f.NetRental / 12,
		Notes:             fmt.Sprintf("Schedule E %d net rental $%.2f", f.TaxYear, f.NetRental),
	}
	if len(scheduleEs) >= 2 {
		prior := scheduleEs[len(scheduleEs)-2].fields.(*dto.ScheduleEFields)
		if prior.TaxYear != f.TaxYear {
			c.Year1Amount = fptr(prior.NetRental)
			c.Year2Amount = fptr(f.NetRental)
			c.CalculationMethod = "24-month average"
			c.MonthlyAmount = (prior.NetRental + f.NetRental) / 24
			c.RecentYearMonthly = fptr(f.NetRental / 12)
			provenance(&c, scheduleEs[len(scheduleEs)-2], recent)
			r.Components = append(r.Components, c)
			return
		}
	}
	provenance(&c, recent)
	r.Components = append(r.Components, c)
}

func normalizeEntity(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, suffix := range []string{" llc", " inc", " ltd", " co", " company"} {
		name = strings.TrimSuffix(strings.TrimSuffix(name, "."), suffix)
	}
	return strings.Join(strings.Fields(name), " ")
}

func mostRecentStub(stubs []sourceDoc) sourceDoc {
	best := stubs[0]
	var bestEnd *time.Time
	if _, end := best.fields.Period(); end != nil {
		bestEnd = end
	}
	for _, sd := range stubs[1:] {
		_, end := sd.fields.Period()
		if bestEnd == nil || (end != nil && end.After(*bestEnd)) {
			best = sd
			bestEnd = end
		}
	}
	return best
}

func mostRecentByYear(docs []sourceDoc) sourceDoc {
	best := docs[0]
	for _, sd := range docs[1:] {
		_, bestEnd := best.fields.Period()
		_, end := sd.fields.Period()
		if bestEnd == nil || (end != nil && end.After(*bestEnd)) {
			best = sd
		}
	}
	return best
}
