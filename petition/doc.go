// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package petition implements the signature campaign: phone vetting, OTP
verification, and signature admission.

# Phone Vetting

Phones are normalized to bare digits before any check or storage, so
"010-2345-6789" and "01023456789" are the same signer. Vetting rejects
malformed numbers, a small deny list of known-abused numbers, suffixes
with four identical digits, and numbers containing a run of seven equal
digits.

# OTP Verification

OTP codes are stateless: the code is an HMAC of the confirmation handle
and the phone, so nothing is stored server-side between send and
confirm. The handle carries its own issue time and expires after the
TTL. Codes are delivered out of band; the API never returns them.

# Admission

Submit re-runs the full validation chain regardless of what the client
checked: consents, name format (2-20 Hangul or Latin letters), phone
vetting, OTP confirmation, optional fields, and the daily cap. The
phone-unique constraint in the schema is the final dedup arbiter.
Authenticated signers are additionally deduplicated by user id.
*/
package petition
