package attendance

// CurrentUser is the acting identity for authorization checks, resolved once
// per session from the auth layer.
type CurrentUser struct {
	ID      string
	Role    string
	StaffID string // linked Staff profile id, empty when the account has none
}

// IsPrivileged reports whether the role bypasses section assignment.
func IsPrivileged(role string) bool {
	return role == "Admin" || role == "SuperAdmin"
}

// CanMark reports whether user may write attendance for section. Admins and
// SuperAdmins always may. Staff may only when the section's assigned-staff
// reference matches either their user id or their linked staff id — the
// assignment was stored as one or the other depending on how the class was
// created, so both are checked. A nil section means class/section are not both
// chosen yet; marking is not applicable and the check fails.
func CanMark(user CurrentUser, section *SectionInfo) bool {
	if IsPrivileged(user.Role) {
		return true
	}
	if section == nil {
		return false
	}
	assigned := ExtractID(section.Staff)
	if assigned == "" {
		return false
	}
	if assigned == ExtractID(user.ID) {
		return true
	}
	return user.StaffID != "" && assigned == ExtractID(user.StaffID)
}
