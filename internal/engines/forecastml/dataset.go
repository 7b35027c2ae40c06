package forecastml

import (
	"context"
	"fmt"

	"github.com/unmolkumar/school-ai-bav/internal/store"
)

// loadPanel reads the entire multi-year history joined across every
// upstream table the feature set draws from (§4.10's 20 features span
// enrolment, infrastructure, teacher, and risk facts). Unlike the
// per-year SQL engines, feature engineering here happens in Go because it
// needs label encoding and rolling statistics that don't map cleanly onto
// a single set-oriented statement.
func (e *Engine) loadPanel(ctx context.Context, conn store.Executor) ([]panelRow, error) {
	rows, err := conn.Query(ctx, `
SELECT
	s.school_id, s.district, COALESCE(s.management_type, ''), s.school_category,
	y.academic_year, y.total_enrolment,
	COALESCE(t.total_teachers, 0),
	COALESCE(i.total_class_rooms, 0), COALESCE(i.usable_class_rooms, 0),
	COALESCE(i.classroom_gap, 0), COALESCE(t.teacher_gap, 0),
	COALESCE(p.risk_score, 0), COALESCE(p.teacher_deficit_ratio, 0), COALESCE(p.classroom_deficit_ratio, 0)
FROM yearly_metrics y
JOIN schools s ON s.school_id = y.school_id
LEFT JOIN infrastructure_details i ON i.school_id = y.school_id AND i.academic_year = y.academic_year
LEFT JOIN teacher_metrics t ON t.school_id = y.school_id AND t.academic_year = y.academic_year
LEFT JOIN school_priority_index p ON p.school_id = y.school_id AND p.academic_year = y.academic_year
ORDER BY s.school_id, y.academic_year`)
	if err != nil {
		return nil, fmt.Errorf("querying panel: %w", err)
	}
	defer rows.Close()

	var out []panelRow
	for rows.Next() {
		var r panelRow
		if err := rows.Scan(
			&r.schoolID, &r.district, &r.management, &r.category,
			&r.academicYear, &r.enrolment,
			&r.totalTeachers,
			&r.totalClassrooms, &r.usableClassrooms,
			&r.classroomGap, &r.teacherGap,
			&r.riskScore, &r.teacherDeficit, &r.classroomDeficit,
		); err != nil {
			return nil, fmt.Errorf("scanning panel row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating panel: %w", err)
	}
	return out, nil
}

// groupPanel splits the flat panel into per-school chronological sequences
// (relying on the query's ORDER BY school_id, academic_year) and derives
// the district/management label encoders over the whole panel at once, so
// every school-year uses a consistent encoding.
func groupPanel(panel []panelRow) (bySchool map[string][]panelRow, districtLabel, managementLabel map[string]int) {
	bySchool = map[string][]panelRow{}
	var districts, managements []string

	for _, r := range panel {
		bySchool[r.schoolID] = append(bySchool[r.schoolID], r)
		districts = append(districts, r.district)
		managements = append(managements, r.management)
	}

	return bySchool, labelEncode(districts), labelEncode(managements)
}
