// Package handler turns API Gateway proxy events into a single response. A
// Lambda boundary wraps any Handler: it identifies and authorizes the caller,
// runs the handler and renders every failure as a JSON error document.
//
// Example:
//
//	type widgets struct{}
//
//	func (widgets) IsSingleResource(inv *handler.Invocation) bool {
//		return inv.Request.ResourceID() != ""
//	}
//
//	func (widgets) RetrieveSingle(inv *handler.Invocation) error {
//		if err := inv.Response.SetJSON(map[string]string{"id": inv.Request.ResourceID()}); err != nil {
//			return err
//		}
//		inv.Response.Send()
//		return nil
//	}
//
//	// Search, Create, Update and Delete omitted.
//
//	func main() {
//		handler.New(handler.Restful(widgets{})).Start()
//	}
package handler
