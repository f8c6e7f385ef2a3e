package authz

// Permission scopes baked into access tokens for downstream services.
// Format: USER:<ACTION>:<SCOPE>, where MANAGE covers every action.
const (
	PermManageGlobal = "USER:MANAGE:GLOBAL"
	PermReadHub      = "USER:READ:HUB"
	PermReadVendor   = "USER:READ:VENDOR"
	PermCreateVendor = "USER:CREATE:VENDOR"
	PermUpdateVendor = "USER:UPDATE:VENDOR"
	PermDeleteVendor = "USER:DELETE:VENDOR"
)

// PermsFor returns the permission scopes a role carries.
func PermsFor(role Role) []string {
	switch role {
	case RoleMaster:
		return []string{PermManageGlobal}
	case RoleHubManager:
		return []string{PermReadHub, PermReadVendor, PermCreateVendor, PermUpdateVendor, PermDeleteVendor}
	case RoleVendorManager:
		return []string{PermReadHub, PermReadVendor, PermUpdateVendor}
	case RoleDeliveryManager:
		return []string{PermReadHub, PermReadVendor}
	default:
		return nil
	}
}
