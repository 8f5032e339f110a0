package database

import (
	"log/slog"
	"time"

	"zzpri-tracker/internal/compliance"
	"zzpri-tracker/internal/models"

	"gorm.io/gorm"
)

// SeedDemoData creates the per-role demo accounts and fills empty tables
// with a small demo data set. Tables that already hold rows are left alone.
func SeedDemoData(now time.Time) error {
	seedDefaultUsers()

	return DB.Transaction(func(tx *gorm.DB) error {
		day := func(n int) *time.Time {
			t := now.AddDate(0, 0, n)
			return &t
		}

		devices := []models.Device{
			{Name: "fw-core-01", DeviceType: models.DeviceNetwork, SerialNumber: "FGT60F-0001", Location: "Ljubljana DC", Owner: "IT", IPAddress: "10.0.0.1", OperatingSystem: "FortiOS 7.4", Criticality: models.SeverityCritical, Status: models.DeviceActive, LastPatchedAt: day(-12)},
			{Name: "srv-erp", DeviceType: models.DeviceServer, SerialNumber: "DL380-7781", Location: "Ljubljana DC", Owner: "Finance", IPAddress: "10.0.1.20", OperatingSystem: "Ubuntu 22.04", Criticality: models.SeverityHigh, Status: models.DeviceActive, LastPatchedAt: day(-40)},
			{Name: "nb-hr-03", DeviceType: models.DeviceLaptop, SerialNumber: "5CG1234XYZ", Location: "Maribor office", Owner: "HR", OperatingSystem: "Windows 11", Criticality: models.SeverityMedium, Status: models.DeviceActive},
		}
		if err := seedTable(tx, "devices", &devices); err != nil {
			return err
		}

		incidents := []models.Incident{
			{Title: "Phishing campaign targeting finance", Category: "phishing", Severity: models.SeverityHigh, Status: models.IncidentInvestigating, ReportedBy: "Service desk", OccurredAt: now.Add(-30 * time.Hour)},
			{Title: "Stolen HR laptop", Category: "theft", Severity: models.SeverityMedium, Status: models.IncidentOpen, ReportedBy: "HR", OccurredAt: now.Add(-50 * time.Hour)},
			{Title: "ERP outage after update", Category: "outage", Severity: models.SeverityLow, Status: models.IncidentResolved, ReportedBy: "IT", OccurredAt: now.AddDate(0, 0, -20), ResolvedAt: day(-19)},
		}
		if err := seedTable(tx, "incidents", &incidents); err != nil {
			return err
		}

		reports := []models.CyberIncidentReport{
			{Title: "Phishing campaign", ReportType: models.ReportEarlyWarning, Authority: "SI-CERT", DetectedAt: now.Add(-30 * time.Hour), Status: models.ReportSubmitted, SubmittedAt: day(-1), SignificantImpact: true},
			{Title: "Phishing campaign", ReportType: models.ReportNotification, Authority: "SI-CERT", DetectedAt: now.Add(-30 * time.Hour), Status: models.ReportDraft, SignificantImpact: true},
		}
		if err := seedTable(tx, "cyber_reports", &reports); err != nil {
			return err
		}

		tickets := []models.SupportTicket{
			{Subject: "Reset MFA token", Priority: models.PriorityMedium, Status: models.TicketOpen, Requester: "ana.novak", Assignee: "helpdesk", DueDate: day(2)},
			{Subject: "Patch srv-erp", Priority: models.PriorityHigh, Status: models.TicketInProgress, Requester: "security", Assignee: "ops", DueDate: day(-1)},
		}
		if err := seedTable(tx, "tickets", &tickets); err != nil {
			return err
		}

		controls := []models.NIS2Control{
			{Code: "21.2.a", Title: "Risk analysis and information system security policies", Domain: "governance", Status: models.ControlImplemented, Owner: "CISO", ReviewDate: day(90)},
			{Code: "21.2.b", Title: "Incident handling", Domain: "operations", Status: models.ControlInProgress, Owner: "SOC"},
			{Code: "21.2.c", Title: "Business continuity and crisis management", Domain: "resilience", Status: models.ControlNotStarted, Owner: "COO"},
			{Code: "21.2.d", Title: "Supply chain security", Domain: "suppliers", Status: models.ControlInProgress, Owner: "Procurement"},
			{Code: "21.2.h", Title: "Cryptography and encryption", Domain: "technical", Status: models.ControlImplemented, Owner: "IT"},
		}
		if err := seedTable(tx, "nis2_controls", &controls); err != nil {
			return err
		}

		risks := []models.RiskEntry{
			{Title: "Ransomware on file servers", Category: "cyber", Likelihood: 3, Impact: 5, Owner: "CISO", Treatment: models.TreatmentMitigate, Status: models.RiskOpen, ReviewDate: day(30)},
			{Title: "Key supplier insolvency", Category: "supply chain", Likelihood: 2, Impact: 3, Owner: "Procurement", Treatment: models.TreatmentTransfer, Status: models.RiskOpen},
			{Title: "Lost unencrypted laptop", Category: "privacy", Likelihood: 2, Impact: 2, Owner: "DPO", Treatment: models.TreatmentMitigate, Status: models.RiskTreated},
		}
		for i := range risks {
			if err := compliance.ApplyRisk(&risks[i]); err != nil {
				return err
			}
		}
		if err := seedTable(tx, "risks", &risks); err != nil {
			return err
		}

		breaches := []models.GDPRBreach{
			{Title: "Stolen HR laptop", DiscoveredAt: now.Add(-50 * time.Hour), DataCategories: "employee records", AffectedSubjects: 120, RiskToRights: models.BreachRiskHigh, Status: models.BreachOpen},
			{Title: "Misdirected payroll email", DiscoveredAt: now.AddDate(0, 0, -40), DataCategories: "salary data", AffectedSubjects: 1, RiskToRights: models.BreachRiskLow, AuthorityNotified: true, AuthorityNotifiedAt: day(-39), Status: models.BreachClosed},
		}
		if err := seedTable(tx, "gdpr_breaches", &breaches); err != nil {
			return err
		}

		transfers := []models.GDPRTransfer{
			{Recipient: "CloudMail Inc.", Country: "US", DataCategories: "contact data", Purpose: "Email hosting", LegalBasis: models.BasisAdequacy, Safeguards: "EU-US Data Privacy Framework", StartDate: day(-400), TIACompleted: true},
			{Recipient: "Support Desk Ltd.", Country: "IN", DataCategories: "customer tickets", Purpose: "Second-level support", LegalBasis: models.BasisSCC, Safeguards: "SCC module 2", StartDate: day(-100)},
		}
		if err := seedTable(tx, "gdpr_transfers", &transfers); err != nil {
			return err
		}

		confidants := []models.WhistleblowerConfidant{
			{Name: "Maja Kovač", Email: "zaupnik@zzpri.local", Phone: "+38640111222", Position: "Legal counsel", AppointedAt: day(-200), Active: true},
			{Name: "Luka Horvat", Email: "namestnik@zzpri.local", Phone: "+38640333444", Position: "Internal audit", AppointedAt: day(-200), Active: true, Deputy: true},
		}
		if err := seedTable(tx, "confidants", &confidants); err != nil {
			return err
		}

		var confidantID *uint
		var first models.WhistleblowerConfidant
		if err := tx.Where("deputy = ?", false).Order("id asc").First(&first).Error; err == nil {
			confidantID = &first.ID
		}
		procedures := []models.WhistleblowerProcedure{
			{Title: "Internal reporting procedure", Version: "1.2", Channel: models.ChannelInternal, Status: models.ProcedureActive, AdoptedAt: day(-180), ConfidantID: confidantID},
			{Title: "External reporting to KPK", Version: "1.0", Channel: models.ChannelExternal, Status: models.ProcedureDraft},
		}
		return seedTable(tx, "procedures", &procedures)
	})
}

// seedTable inserts rows only when the table is empty.
func seedTable[T any](tx *gorm.DB, name string, rows *[]T) error {
	var count int64
	if err := tx.Model(new(T)).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if err := tx.Create(rows).Error; err != nil {
		return err
	}
	slog.Info("seeded demo data", "table", name, "rows", len(*rows))
	return nil
}
