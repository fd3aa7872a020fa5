// Package magister provides a client for the Magister school portal API.
//
// The client negotiates a cookie-based session at construction time, takes a
// snapshot of the account's privileges, and gates every resource fetch on
// that snapshot so that unauthorized calls fail before any request is issued.
//
// # Features
//
//   - Session login with credential or pre-supplied session id
//   - Privilege-checked fetchers for appointments, absences, courses,
//     message folders and contact persons
//   - Calendar appointment creation
//   - Unauthenticated school lookup
//   - Context-aware operations for graceful cancellation
//
// # Usage
//
//	client, err := magister.NewClient(ctx, "myschool", logger,
//	    magister.WithCredentials("user", "pass"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	appointments, err := client.Appointments(ctx, from, to, magister.AppointmentOptions{})
package magister
