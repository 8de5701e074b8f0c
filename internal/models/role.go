package models

type Capability string

const (
	CapViewCatalog        Capability = "view_catalog"
	CapCreateLab          Capability = "create_lab"
	CapEditLab            Capability = "edit_lab"
	CapEditAnyLab         Capability = "edit_any_lab"
	CapViewAllAllocations Capability = "view_all_allocations"
	CapManageAllocations  Capability = "manage_allocations"
	CapManageUsers        Capability = "manage_users"
	CapManageCourses      Capability = "manage_courses"
	CapExportReports      Capability = "export_reports"
	CapTakeLab            Capability = "take_lab"
)

// RoleCapabilities is the closed permission table. Roles absent from the table have
// no capabilities.
var RoleCapabilities = map[UserRole][]Capability{
	RoleAdmin: {
		CapViewCatalog,
		CapEditLab,
		CapEditAnyLab,
		CapViewAllAllocations,
		CapManageAllocations,
		CapManageUsers,
		CapExportReports,
	},
	RoleCreator: {
		CapViewCatalog,
		CapCreateLab,
		CapEditLab,
		CapViewAllAllocations,
		CapManageCourses,
	},
	RoleStudent: {
		CapViewCatalog,
		CapTakeLab,
	},
}

func (r UserRole) IsValid() bool {
	_, ok := RoleCapabilities[r]
	return ok
}

// Can reports whether the role holds the capability.
func (r UserRole) Can(capability Capability) bool {
	for _, c := range RoleCapabilities[r] {
		if c == capability {
			return true
		}
	}
	return false
}

type View string

const (
	ViewDashboard   View = "dashboard"
	ViewCatalog     View = "catalog"
	ViewAllocations View = "allocations"
	ViewUsers       View = "users"
	ViewCreateLab   View = "create-lab"
)

// viewRequirements lists navigation views in menu order with the capability that unlocks each.
var viewRequirements = []struct {
	view       View
	capability Capability
}{
	{ViewDashboard, ""},
	{ViewCatalog, CapViewCatalog},
	{ViewAllocations, CapManageAllocations},
	{ViewUsers, CapManageUsers},
	{ViewCreateLab, CapCreateLab},
}

// AvailableViews derives the navigation menu for a role.
func AvailableViews(role UserRole) []View {
	if !role.IsValid() {
		return nil
	}
	views := make([]View, 0, len(viewRequirements))
	for _, req := range viewRequirements {
		if req.capability == "" || role.Can(req.capability) {
			views = append(views, req.view)
		}
	}
	return views
}
