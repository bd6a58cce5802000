// Package session holds the client-side authentication state of one page
// context: the signed-in user and the operations that change it.
//
// A Provider talks to the remote session API through an apiclient.Client,
// persists the session and refresh tokens in a cookie.Store, and shares
// sign-out with other tabs over a signout.Channel it opens on Start and
// releases on Close.
//
// # Architecture
//
//	┌──────────┐  Do   ┌───────────┐  401  ┌──────────────┐
//	│ Provider │ ────► │ apiclient │ ────► │ tokenrefresh │
//	└──────────┘       └───────────┘       └──────────────┘
//	     │  ▲                                     │
//	     │  └──────── terminated: SignOut ────────┘
//	     ▼
//	┌──────────┐  signOut  ┌───────────┐
//	│ signout  │ ◄───────► │ other tabs│
//	└──────────┘           └───────────┘
//
// # Usage
//
//	provider := session.NewProvider(client, jar, bus,
//	    session.WithNavigator(session.NavigatorFunc(router.Push)),
//	    session.WithLogger(log),
//	)
//	defer provider.Close()
//
//	restored, err := provider.Start(ctx)
//	if err != nil { return err }
//	user, _ := restored.Await()
//
//	if user == nil {
//	    user, err = provider.SignIn(ctx, session.Credentials{Email: email, Password: password})
//	    switch {
//	    case errors.Is(err, session.ErrInvalidCredentials):
//	        // show a form error
//	    case errors.Is(err, session.ErrNetwork):
//	        // offer a retry
//	    }
//	}
//
//	if provider.Can(session.Requirements{Permissions: []string{"metrics.list"}, Roles: []string{"administrator"}}) {
//	    // ...
//	}
//
//	_ = provider.SignOut(ctx, false) // every tab signs out
//
// # Sign-out
//
// SignOut always deletes both cookies, clears the bearer and the user, then
// navigates to the entry page. With localOnly false it first announces the
// sign-out to other tabs, which sign out with localOnly true so the signal is
// never echoed back.
//
// # Error Handling
//
// SignIn errors match one of ErrInvalidCredentials, ErrNetwork or
// ErrSignInFailed and wrap the underlying apiclient error. A failed restore
// is not an error: the future resolves to nil and the session ends signed
// out.
package session
